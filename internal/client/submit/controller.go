// Package submit drives one generation request from a form to a view.
//
// A Controller reads the current field values from a Form, posts them to
// the generation endpoint once, and renders the outcome on a View. The
// host decides what a form and a view are: podcastctl backs them with
// flags and the terminal.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/podcaststudio/server/internal/model"
)

const (
	generatePath = "/api/generate"

	// DefaultDuration replaces an empty, non-numeric or non-positive
	// duration field.
	DefaultDuration = 3

	StatusSubmitting = "Generating... this can take a minute."
	StatusSuccess    = "Podcast created successfully."
	FallbackError    = "Failed to generate podcast."
)

// Form supplies the current field values.
type Form interface {
	Topic() string
	Style() string
	// Duration returns the raw text of the duration field.
	Duration() string
	Model() string
	SkipAudio() bool
}

// View receives every visible change the controller makes.
type View interface {
	SetSubmitEnabled(enabled bool)
	SetResultVisible(visible bool)
	SetStatus(text string)
	SetScript(text string)
	SetScriptLink(href string)
	SetAudioLink(href string, visible bool)
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome is the result of one submission. Result is set on success and
// Err on failure.
type Outcome struct {
	State  State
	Result *model.GenerationResult
	Err    error
}

// ResponseError is a non-2xx answer from the generation endpoint.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return e.Message
}

// Controller orchestrates one request/response cycle per HandleSubmit.
type Controller struct {
	endpoint string
	client   Doer
	form     Form
	view     View

	mu    sync.Mutex
	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient sets the client used for the generation request.
func WithHTTPClient(client Doer) Option {
	return func(c *Controller) {
		c.client = client
	}
}

// New creates a controller posting to serverURL, e.g.
// "http://localhost:5000". An empty serverURL posts to the bare path.
func New(serverURL string, form Form, view View, opts ...Option) *Controller {
	c := &Controller{
		endpoint: strings.TrimRight(serverURL, "/") + generatePath,
		client:   http.DefaultClient,
		form:     form,
		view:     view,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// HandleSubmit runs one submission. It blocks until the request settles or
// ctx ends, and always leaves the submit control enabled.
func (c *Controller) HandleSubmit(ctx context.Context) Outcome {
	defer c.view.SetSubmitEnabled(true)

	c.view.SetSubmitEnabled(false)
	c.view.SetResultVisible(false)
	c.view.SetStatus(StatusSubmitting)
	c.setState(StateSubmitting)

	result, err := c.send(ctx, c.buildRequest())
	if err != nil {
		c.view.SetStatus("Error: " + err.Error())
		c.setState(StateFailure)
		return Outcome{State: StateFailure, Err: err}
	}

	c.view.SetScript(result.Script)
	c.view.SetScriptLink(ScriptLink(result.ScriptPath))
	if result.AudioPath != "" {
		c.view.SetAudioLink(AudioLink(result.AudioPath), true)
	} else {
		c.view.SetAudioLink("", false)
	}
	c.view.SetResultVisible(true)
	c.view.SetStatus(StatusSuccess)
	c.setState(StateSuccess)

	return Outcome{State: StateSuccess, Result: result}
}

func (c *Controller) buildRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		Topic:           c.form.Topic(),
		Style:           c.form.Style(),
		DurationMinutes: ParseDuration(c.form.Duration()),
		Model:           c.form.Model(),
		SkipAudio:       c.form.SkipAudio(),
	}
}

// DurationPattern is the accepted duration text: a plain decimal number,
// optionally with an exponent. The page script uses the same expression.
const DurationPattern = `^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`

var durationRe = regexp.MustCompile(DurationPattern)

// ParseDuration converts the duration field text to whole minutes.
// Fractions are truncated; unusable values give DefaultDuration.
func ParseDuration(raw string) int {
	raw = strings.TrimSpace(raw)
	if !durationRe.MatchString(raw) {
		return DefaultDuration
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 1 || f > math.MaxInt32 {
		return DefaultDuration
	}
	return int(f)
}

func (c *Controller) send(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var result *model.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	if result == nil {
		return nil, errors.New("invalid response: empty body")
	}
	return result, nil
}

// errorMessage returns the error field of a failure body, or the fallback
// when the body has none.
func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return FallbackError
	}
	return body.Error
}
