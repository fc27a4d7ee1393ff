package podcast

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/podcaststudio/server/internal/model"
	"github.com/podcaststudio/server/internal/port/inbound"
	"github.com/podcaststudio/server/internal/port/outbound"
	"github.com/podcaststudio/server/internal/shared/metrics"
)

// Domain implements podcast generation.
type Domain struct {
	writer   outbound.ScriptWriterPort
	speech   outbound.SpeechSynthesizerPort
	store    outbound.ArtifactStorePort
	mirror   outbound.ArtifactMirrorPort
	episodes outbound.EpisodeDatabasePort
	cache    outbound.ScriptCachePort

	sanitizer *bluemonday.Policy
	metrics   *metrics.Metrics
	config    *Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewDomain creates a new podcast domain. speech, mirror, episodes, cache
// and m may be nil; the matching feature is then skipped.
func NewDomain(
	writer outbound.ScriptWriterPort,
	speech outbound.SpeechSynthesizerPort,
	store outbound.ArtifactStorePort,
	mirror outbound.ArtifactMirrorPort,
	episodes outbound.EpisodeDatabasePort,
	cache outbound.ScriptCachePort,
	m *metrics.Metrics,
	config *Config,
	logger *zap.Logger,
) *Domain {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Domain{
		writer:    writer,
		speech:    speech,
		store:     store,
		mirror:    mirror,
		episodes:  episodes,
		cache:     cache,
		sanitizer: bluemonday.StrictPolicy(),
		metrics:   m,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// DefaultModel returns the model prefilled in the form.
func (d *Domain) DefaultModel() string {
	return d.config.DefaultModel
}

// Generate writes a script for the request, saves it, and unless audio is
// skipped synthesizes and saves the narration.
func (d *Domain) Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResult, error) {
	in := d.normalize(req)
	if in.Topic == "" {
		return nil, ErrTopicRequired
	}
	if !in.SkipAudio && d.speech == nil {
		return nil, ErrSpeechUnavailable
	}

	start := d.now()
	result, err := d.generate(ctx, in, start)
	d.metrics.RecordGeneration(err == nil, !in.SkipAudio, d.now().Sub(start))
	if err != nil {
		d.logger.Error("Podcast generation failed",
			zap.String("topic", in.Topic),
			zap.String("model", in.Model),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

func (d *Domain) generate(ctx context.Context, in *model.GenerationRequest, start time.Time) (*model.GenerationResult, error) {
	prompt := BuildPrompt(in.Topic, in.Style, in.DurationMinutes)

	script, cached, err := d.writeScript(ctx, prompt, in.Model)
	if err != nil {
		return nil, err
	}

	base := ArtifactBaseName(in.Topic, start)
	scriptName := base + model.ArtifactScript.Extension()
	scriptPath, err := d.store.Save(ctx, scriptName, strings.NewReader(script))
	if err != nil {
		return nil, fmt.Errorf("save script: %w", err)
	}
	d.mirrorArtifact(ctx, model.ArtifactScript, scriptName, []byte(script))

	result := &model.GenerationResult{
		Script:     script,
		ScriptPath: scriptPath,
	}

	if !in.SkipAudio {
		audioName := base + model.ArtifactAudio.Extension()
		audio, err := d.synthesize(ctx, script)
		if err != nil {
			return nil, err
		}
		audioPath, err := d.store.Save(ctx, audioName, bytes.NewReader(audio))
		if err != nil {
			return nil, fmt.Errorf("save audio: %w", err)
		}
		d.mirrorArtifact(ctx, model.ArtifactAudio, audioName, audio)
		result.AudioPath = audioPath
	}

	latency := d.now().Sub(start)
	episode := &model.Episode{
		ID:              uuid.New(),
		Topic:           in.Topic,
		Style:           in.Style,
		Model:           in.Model,
		DurationMinutes: in.DurationMinutes,
		ScriptPath:      result.ScriptPath,
		AudioPath:       result.AudioPath,
		ScriptChars:     len(script),
		CacheHit:        cached,
		LatencyMs:       latency.Milliseconds(),
		CreatedAt:       start,
	}
	if d.recordEpisode(ctx, episode) {
		result.EpisodeID = episode.ID.String()
	}

	d.logger.Info("Podcast generated",
		zap.String("topic", in.Topic),
		zap.String("model", in.Model),
		zap.Bool("audio", !in.SkipAudio),
		zap.Bool("cache_hit", cached),
		zap.Duration("latency", latency),
	)

	return result, nil
}

// normalize applies the defaults and strips markup from free-text fields.
func (d *Domain) normalize(req *model.GenerationRequest) *model.GenerationRequest {
	out := &model.GenerationRequest{}
	if req != nil {
		*out = *req
	}

	out.Topic = d.clean(out.Topic)
	out.Style = d.clean(out.Style)
	out.Model = strings.TrimSpace(out.Model)

	if out.Style == "" {
		out.Style = d.config.DefaultStyle
	}
	if out.Model == "" {
		out.Model = d.config.DefaultModel
	}
	if out.DurationMinutes < 1 {
		out.DurationMinutes = d.config.DefaultDuration
	}
	return out
}

func (d *Domain) clean(s string) string {
	// The strict policy escapes what it keeps; prompts want plain text.
	return strings.TrimSpace(html.UnescapeString(d.sanitizer.Sanitize(s)))
}

// writeScript returns the script for prompt, consulting the cache first.
func (d *Domain) writeScript(ctx context.Context, prompt, modelName string) (string, bool, error) {
	key := ScriptCacheKey(modelName, prompt)

	if d.cache != nil {
		script, ok, err := d.cache.Get(ctx, key)
		switch {
		case err != nil:
			d.logger.Warn("Script cache lookup failed", zap.Error(err))
		case ok:
			d.metrics.RecordCacheHit("script")
			return script, true, nil
		default:
			d.metrics.RecordCacheMiss("script")
		}
	}

	script, err := d.writer.WriteScript(ctx, prompt, modelName)
	if err != nil {
		return "", false, fmt.Errorf("generate script: %w", err)
	}
	if strings.TrimSpace(script) == "" {
		return "", false, ErrEmptyScript
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, script); err != nil {
			d.logger.Warn("Script cache store failed", zap.Error(err))
		}
	}
	return script, false, nil
}

func (d *Domain) synthesize(ctx context.Context, script string) ([]byte, error) {
	rc, err := d.speech.Synthesize(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("generate audio: %w", err)
	}
	defer rc.Close()

	audio, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

// mirrorArtifact copies a saved file to object storage. Failures are
// logged; the local copy stays authoritative.
func (d *Domain) mirrorArtifact(ctx context.Context, kind model.ArtifactKind, name string, data []byte) {
	if d.mirror == nil {
		return
	}
	if err := d.mirror.Put(ctx, name, bytes.NewReader(data), int64(len(data)), kind.ContentType()); err != nil {
		d.logger.Warn("Artifact mirror failed",
			zap.String("kind", string(kind)),
			zap.String("name", name),
			zap.Error(err),
		)
	}
}

// recordEpisode stores history and reports whether it was stored.
func (d *Domain) recordEpisode(ctx context.Context, episode *model.Episode) bool {
	if d.episodes == nil {
		return false
	}
	if err := d.episodes.Create(ctx, episode); err != nil {
		d.logger.Warn("Episode history write failed",
			zap.String("episode_id", episode.ID.String()),
			zap.Error(err),
		)
		return false
	}
	return true
}

// ListEpisodes returns recent generations, newest first. Without a
// history database the list is empty.
func (d *Domain) ListEpisodes(ctx context.Context, limit int) ([]*model.Episode, error) {
	if d.episodes == nil {
		return []*model.Episode{}, nil
	}
	if limit <= 0 || limit > d.config.HistoryLimit {
		limit = d.config.HistoryLimit
	}
	episodes, err := d.episodes.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return episodes, nil
}

// ResolveArtifact returns the local file for a download path.
func (d *Domain) ResolveArtifact(ctx context.Context, kind model.ArtifactKind, rawPath string) (string, error) {
	if strings.TrimSpace(rawPath) == "" {
		return "", ErrArtifactNotFound
	}
	path, err := d.store.Resolve(ctx, rawPath)
	if err != nil {
		d.logger.Debug("Artifact lookup rejected",
			zap.String("kind", string(kind)),
			zap.String("path", rawPath),
			zap.Error(err),
		)
		return "", ErrArtifactNotFound
	}
	return path, nil
}

var _ inbound.PodcastDomain = (*Domain)(nil)
