package gin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/podcaststudio/server/internal/domain/podcast"
	"github.com/podcaststudio/server/internal/model"
	"github.com/podcaststudio/server/internal/port/inbound"
	apperrors "github.com/podcaststudio/server/internal/shared/errors"
	"github.com/podcaststudio/server/web"
)

type MockPodcastDomain struct {
	mock.Mock
}

func (m *MockPodcastDomain) Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GenerationResult), args.Error(1)
}

func (m *MockPodcastDomain) ListEpisodes(ctx context.Context, limit int) ([]*model.Episode, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Episode), args.Error(1)
}

func (m *MockPodcastDomain) ResolveArtifact(ctx context.Context, kind model.ArtifactKind, rawPath string) (string, error) {
	args := m.Called(ctx, kind, rawPath)
	return args.String(0), args.Error(1)
}

func (m *MockPodcastDomain) DefaultModel() string {
	return m.Called().String(0)
}

var _ inbound.PodcastDomain = (*MockPodcastDomain)(nil)

func setupRouter(domain inbound.PodcastDomain) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	NewPodcastHandler(domain).RegisterRoutes(r)
	return r
}

func perform(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestPodcastHandler_Index(t *testing.T) {
	domain := new(MockPodcastDomain)
	domain.On("DefaultModel").Return("llama3.2:3b")
	r := setupRouter(domain)

	w := perform(r, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	for _, id := range []string{
		"generator-form", "topic", "style", "duration", "model", "skip-audio",
		"submit-btn", "status", "result", "script-output", "script-link", "audio-link",
	} {
		assert.Contains(t, page, `id="`+id+`"`)
	}
	assert.Contains(t, page, `value="llama3.2:3b"`)
}

func TestPodcastHandler_Static(t *testing.T) {
	r := setupRouter(new(MockPodcastDomain))

	w := perform(r, http.MethodGet, "/static/app.js", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/generate")
}

func TestPodcastHandler_Generate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		domain := new(MockPodcastDomain)
		r := setupRouter(domain)

		want := &model.GenerationRequest{Topic: "Space", Style: "casual", DurationMinutes: 5, Model: "gpt"}
		domain.On("Generate", mock.Anything, want).Return(&model.GenerationResult{
			Script:     "Hello",
			ScriptPath: "output/space.txt",
			AudioPath:  "output/space.mp3",
		}, nil)

		w := perform(r, http.MethodPost, "/api/generate",
			`{"topic":"Space","style":"casual","duration_minutes":5,"model":"gpt","skip_audio":false}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		expected := map[string]any{
			"script":      "Hello",
			"script_path": "output/space.txt",
			"audio_path":  "output/space.mp3",
		}
		if diff := cmp.Diff(expected, got); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
		domain.AssertExpectations(t)
	})

	t.Run("loose field types", func(t *testing.T) {
		domain := new(MockPodcastDomain)
		r := setupRouter(domain)

		want := &model.GenerationRequest{Topic: "Bees", DurationMinutes: 7, SkipAudio: true}
		domain.On("Generate", mock.Anything, want).Return(&model.GenerationResult{Script: "Buzz"}, nil)

		w := perform(r, http.MethodPost, "/api/generate",
			`{"topic":"Bees","duration_minutes":"7","skip_audio":1,"model":42}`)

		assert.Equal(t, http.StatusOK, w.Code)
		domain.AssertExpectations(t)
	})

	t.Run("malformed body reads as empty", func(t *testing.T) {
		domain := new(MockPodcastDomain)
		r := setupRouter(domain)

		domain.On("Generate", mock.Anything, &model.GenerationRequest{}).Return(nil, podcast.ErrTopicRequired)

		for _, body := range []string{"not json", "[1,2]", ""} {
			w := perform(r, http.MethodPost, "/api/generate", body)

			assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
			assert.Equal(t, "Topic is required.", decodeError(t, w))
		}
	})

	t.Run("generation failure", func(t *testing.T) {
		domain := new(MockPodcastDomain)
		r := setupRouter(domain)

		domain.On("Generate", mock.Anything, mock.Anything).
			Return(nil, errors.New("generate script: connection refused"))

		w := perform(r, http.MethodPost, "/api/generate", `{"topic":"Bees"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "generate script: connection refused", decodeError(t, w))
	})

	t.Run("speech unavailable", func(t *testing.T) {
		domain := new(MockPodcastDomain)
		r := setupRouter(domain)

		domain.On("Generate", mock.Anything, mock.Anything).Return(nil, podcast.ErrSpeechUnavailable)

		w := perform(r, http.MethodPost, "/api/generate", `{"topic":"Bees"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, podcast.ErrSpeechUnavailable.Error(), decodeError(t, w))
	})

	t.Run("upstream breaker open", func(t *testing.T) {
		domain := new(MockPodcastDomain)
		r := setupRouter(domain)

		domain.On("Generate", mock.Anything, mock.Anything).
			Return(nil, apperrors.Unavailable("script writer is unavailable", errors.New("circuit breaker is open")))

		w := perform(r, http.MethodPost, "/api/generate", `{"topic":"Bees"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, decodeError(t, w), "script writer is unavailable")
	})
}

func TestPodcastHandler_Download(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "space-20260314-093005.txt")
	require.NoError(t, os.WriteFile(file, []byte("Hello"), 0o644))

	t.Run("script", func(t *testing.T) {
		domain := new(MockPodcastDomain)
		r := setupRouter(domain)
		domain.On("ResolveArtifact", mock.Anything, model.ArtifactScript, "output/space-20260314-093005.txt").
			Return(file, nil)

		w := perform(r, http.MethodGet, "/download/script?path=output%2Fspace-20260314-093005.txt", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Hello", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "space-20260314-093005.txt")
	})

	tests := []struct {
		name    string
		target  string
		kind    model.ArtifactKind
		message string
	}{
		{"script missing", "/download/script?path=..%2Fsecret", model.ArtifactScript, "Script file not found."},
		{"audio missing", "/download/audio?path=output%2Fnope.mp3", model.ArtifactAudio, "Audio file not found."},
		{"audio without path", "/download/audio", model.ArtifactAudio, "Audio file not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain := new(MockPodcastDomain)
			r := setupRouter(domain)
			domain.On("ResolveArtifact", mock.Anything, tt.kind, mock.Anything).Return("", podcast.ErrArtifactNotFound)

			w := perform(r, http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
		})
	}
}

func TestPodcastHandler_ListEpisodes(t *testing.T) {
	domain := new(MockPodcastDomain)
	r := setupRouter(domain)

	domain.On("ListEpisodes", mock.Anything, 5).Return([]*model.Episode{{Topic: "Owls"}}, nil)
	domain.On("ListEpisodes", mock.Anything, 20).Return([]*model.Episode{}, nil)

	w := perform(r, http.MethodGet, "/api/episodes?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"topic":"Owls"`)

	w = perform(r, http.MethodGet, "/api/episodes?limit=abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"episodes":[]}`, w.Body.String())
}
