package model

import (
	"time"

	"github.com/google/uuid"
)

// GenerationRequest is the body of POST /api/generate.
type GenerationRequest struct {
	Topic           string `json:"topic"`
	Style           string `json:"style"`
	DurationMinutes int    `json:"duration_minutes"`
	Model           string `json:"model"`
	SkipAudio       bool   `json:"skip_audio"`
}

// GenerationResult is the successful response of POST /api/generate.
// AudioPath is empty when audio was skipped.
type GenerationResult struct {
	Script     string `json:"script"`
	ScriptPath string `json:"script_path"`
	AudioPath  string `json:"audio_path"`
	EpisodeID  string `json:"episode_id,omitempty"`
}

// ArtifactKind identifies a generated file type.
type ArtifactKind string

const (
	ArtifactScript ArtifactKind = "script"
	ArtifactAudio  ArtifactKind = "audio"
)

// Extension returns the file extension used for the kind.
func (k ArtifactKind) Extension() string {
	switch k {
	case ArtifactAudio:
		return ".mp3"
	default:
		return ".txt"
	}
}

// ContentType returns the MIME type used when storing or serving the kind.
func (k ArtifactKind) ContentType() string {
	switch k {
	case ArtifactAudio:
		return "audio/mpeg"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Episode is one successful generation kept in history.
type Episode struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Topic           string    `json:"topic"`
	Style           string    `json:"style"`
	Model           string    `json:"model"`
	DurationMinutes int       `json:"duration_minutes"`
	ScriptPath      string    `json:"script_path"`
	AudioPath       string    `json:"audio_path,omitempty"`
	ScriptChars     int       `json:"script_chars"`
	CacheHit        bool      `json:"cache_hit"`
	LatencyMs       int64     `json:"latency_ms"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the table name.
func (Episode) TableName() string {
	return "episodes"
}
