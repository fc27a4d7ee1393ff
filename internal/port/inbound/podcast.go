package inbound

import (
	"context"

	"github.com/podcaststudio/server/internal/model"
)

// PodcastDomain is the generation service exposed to HTTP handlers.
type PodcastDomain interface {
	// Generate writes a script, optionally synthesizes audio, and returns
	// the artifact paths.
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResult, error)

	// ListEpisodes returns recent generations, newest first.
	ListEpisodes(ctx context.Context, limit int) ([]*model.Episode, error)

	// ResolveArtifact returns the local file for a download request.
	ResolveArtifact(ctx context.Context, kind model.ArtifactKind, rawPath string) (string, error)

	// DefaultModel is the model prefilled in the form.
	DefaultModel() string
}
