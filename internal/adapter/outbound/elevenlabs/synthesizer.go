package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/podcaststudio/server/internal/port/outbound"
	"github.com/podcaststudio/server/internal/shared/breaker"
	"github.com/podcaststudio/server/internal/shared/config"
	apperrors "github.com/podcaststudio/server/internal/shared/errors"
	"github.com/podcaststudio/server/internal/shared/metrics"
)

const (
	providerName   = "elevenlabs"
	defaultModelID = "eleven_multilingual_v2"
)

// Synthesizer implements outbound.SpeechSynthesizerPort with the
// ElevenLabs text-to-speech API.
type Synthesizer struct {
	baseURL string
	apiKey  string
	voiceID string
	modelID string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[io.ReadCloser]
	metrics *metrics.Metrics
}

// NewSynthesizer creates an ElevenLabs synthesizer. cfg.Timeout bounds each
// call until the returned audio stream is closed.
func NewSynthesizer(cfg *config.ElevenLabsConfig, breakerCfg *config.BreakerConfig, client *http.Client, m *metrics.Metrics) *Synthesizer {
	if client == nil {
		client = &http.Client{}
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	return &Synthesizer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		modelID: modelID,
		timeout: cfg.Timeout,
		client:  client,
		breaker: breaker.New[io.ReadCloser](providerName, breakerCfg, m),
		metrics: m,
	}
}

// Synthesize converts text to MP3 audio.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	start := time.Now()
	audio, err := s.breaker.Execute(func() (io.ReadCloser, error) {
		return s.convert(ctx, text)
	})
	s.metrics.RecordProviderRequest(providerName, err == nil, time.Since(start))

	if breaker.IsOpen(err) {
		return nil, apperrors.Unavailable("speech synthesizer is unavailable", err)
	}
	return audio, err
}

func (s *Synthesizer) convert(ctx context.Context, text string) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}

	rc, err := s.do(ctx, text)
	if err != nil {
		cancel()
		return nil, err
	}
	return &cancelOnClose{ReadCloser: rc, cancel: cancel}, nil
}

func (s *Synthesizer) do(ctx context.Context, text string) (io.ReadCloser, error) {
	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": s.modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := s.baseURL + "/v1/text-to-speech/" + url.PathEscape(s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return resp.Body, nil
}

// cancelOnClose releases the call deadline once the audio is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

var _ outbound.SpeechSynthesizerPort = (*Synthesizer)(nil)
