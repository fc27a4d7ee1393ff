package podcast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// BuildPrompt returns the script writer prompt for a topic.
func BuildPrompt(topic, style string, minutes int) string {
	return fmt.Sprintf(`Create a natural, engaging podcast script about: %s.
Length: about %d minutes when read aloud.
Tone: %s, friendly, and human.
Write the script as if talking directly to listeners.
Return only the words to be spoken, without stage directions or speaker labels.`,
		topic, minutes, style)
}

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slugify(s string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "episode"
	}
	return slug
}

// ArtifactBaseName returns the timestamped file name stem for a topic.
func ArtifactBaseName(topic string, at time.Time) string {
	return Slugify(topic) + "-" + at.Format("20060102-150405")
}

// ScriptCacheKey fingerprints a prompt and model.
func ScriptCacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
