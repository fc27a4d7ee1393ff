package submit

import "strings"

const (
	scriptDownloadRoute = "/download/script"
	audioDownloadRoute  = "/download/audio"
)

// ScriptLink returns the download link for a script path.
func ScriptLink(path string) string {
	return scriptDownloadRoute + "?path=" + EncodeURIComponent(path)
}

// AudioLink returns the download link for an audio path.
func AudioLink(path string) string {
	return audioDownloadRoute + "?path=" + EncodeURIComponent(path)
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s like the browser function of the
// same name: everything except ASCII letters, digits and -_.!~*'() is
// escaped as UTF-8 bytes.
func EncodeURIComponent(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepUnescaped(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0f])
	}
	return sb.String()
}

func keepUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
