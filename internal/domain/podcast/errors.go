package podcast

import "errors"

var (
	// ErrTopicRequired is returned when the request has no usable topic.
	ErrTopicRequired = errors.New("topic is required")

	// ErrSpeechUnavailable is returned when audio is requested but no
	// speech synthesizer is configured.
	ErrSpeechUnavailable = errors.New("audio generation is not configured")

	// ErrEmptyScript is returned when the script writer produced no text.
	ErrEmptyScript = errors.New("script writer returned an empty script")

	// ErrArtifactNotFound is returned for download paths that do not name
	// an existing file inside the output directory.
	ErrArtifactNotFound = errors.New("artifact not found")
)
