package outbound

import (
	"context"
	"io"
	"time"

	"github.com/podcaststudio/server/internal/model"
)

// ScriptWriterPort turns a prompt into a podcast script.
type ScriptWriterPort interface {
	// WriteScript generates the script text for prompt using the named model.
	WriteScript(ctx context.Context, prompt, model string) (string, error)
}

// SpeechSynthesizerPort converts a script to spoken audio.
type SpeechSynthesizerPort interface {
	// Synthesize returns an MP3 stream for text. The caller closes it.
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}

// ArtifactStorePort persists generated files on local disk.
type ArtifactStorePort interface {
	// Save writes r under name and returns the path clients use to
	// download it.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Resolve maps a client-supplied path to an existing file inside the
	// store. Paths outside the store or missing files are rejected.
	Resolve(ctx context.Context, rawPath string) (string, error)
}

// ArtifactMirrorPort copies generated files to object storage.
type ArtifactMirrorPort interface {
	// Put uploads r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// EpisodeDatabasePort defines episode history persistence.
type EpisodeDatabasePort interface {
	// Create stores a new episode.
	Create(ctx context.Context, episode *model.Episode) error

	// FindRecent returns the newest episodes first.
	FindRecent(ctx context.Context, limit int) ([]*model.Episode, error)
}

// ScriptCachePort caches generated scripts by prompt fingerprint.
type ScriptCachePort interface {
	// Get returns the cached script and whether it was found.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a script.
	Set(ctx context.Context, key, script string) error
}

// RateLimiterPort counts requests per key in a sliding window.
type RateLimiterPort interface {
	// Allow records one request for key and reports whether it fits in
	// limit, along with the requests left in the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}
