package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/podcaststudio/server/internal/port/outbound"
	"github.com/podcaststudio/server/internal/shared/breaker"
	"github.com/podcaststudio/server/internal/shared/config"
	apperrors "github.com/podcaststudio/server/internal/shared/errors"
	"github.com/podcaststudio/server/internal/shared/metrics"
)

const providerName = "ollama"

// ScriptWriter implements outbound.ScriptWriterPort against a local Ollama
// server.
type ScriptWriter struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	metrics *metrics.Metrics
}

// NewScriptWriter creates an Ollama script writer. cfg.Timeout bounds each
// call, including reading the whole stream.
func NewScriptWriter(cfg *config.OllamaConfig, breakerCfg *config.BreakerConfig, client *http.Client, m *metrics.Metrics) *ScriptWriter {
	if client == nil {
		client = &http.Client{}
	}
	return &ScriptWriter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		client:  client,
		breaker: breaker.New[string](providerName, breakerCfg, m),
		metrics: m,
	}
}

// generateChunk is one line of the streamed /api/generate response.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// WriteScript streams a completion for prompt and returns the joined text.
func (w *ScriptWriter) WriteScript(ctx context.Context, prompt, model string) (string, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	script, err := w.breaker.Execute(func() (string, error) {
		return w.generate(ctx, prompt, model)
	})
	w.metrics.RecordProviderRequest(providerName, err == nil, time.Since(start))

	if breaker.IsOpen(err) {
		return "", apperrors.Unavailable("script writer is unavailable", err)
	}
	return script, err
}

func (w *ScriptWriter) generate(ctx context.Context, prompt, model string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return readStream(resp.Body)
}

// readStream joins the response fields of a newline-delimited JSON stream.
func readStream(r io.Reader) (string, error) {
	reader := bufio.NewReader(r)
	var sb strings.Builder

	for {
		line, err := reader.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var chunk generateChunk
			if jerr := json.Unmarshal(line, &chunk); jerr != nil {
				return "", fmt.Errorf("decode stream: %w", jerr)
			}
			if chunk.Error != "" {
				return "", fmt.Errorf("ollama: %s", chunk.Error)
			}
			sb.WriteString(chunk.Response)
			if chunk.Done {
				return sb.String(), nil
			}
		}
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("read stream: %w", err)
		}
	}
}

var _ outbound.ScriptWriterPort = (*ScriptWriter)(nil)
