package podcast

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/podcaststudio/server/internal/model"
	"github.com/podcaststudio/server/internal/port/outbound"
)

// --- Mock implementations ---

type MockScriptWriter struct {
	mock.Mock
}

func (m *MockScriptWriter) WriteScript(ctx context.Context, prompt, modelName string) (string, error) {
	args := m.Called(ctx, prompt, modelName)
	return args.String(0), args.Error(1)
}

var _ outbound.ScriptWriterPort = (*MockScriptWriter)(nil)

type MockSpeech struct {
	mock.Mock
}

func (m *MockSpeech) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

var _ outbound.SpeechSynthesizerPort = (*MockSpeech)(nil)

type MockStore struct {
	mock.Mock
	saved map[string]string
}

func (m *MockStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	m.saved[name] = string(data)
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Resolve(ctx context.Context, rawPath string) (string, error) {
	args := m.Called(ctx, rawPath)
	return args.String(0), args.Error(1)
}

var _ outbound.ArtifactStorePort = (*MockStore)(nil)

type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, size, contentType)
	return args.Error(0)
}

var _ outbound.ArtifactMirrorPort = (*MockMirror)(nil)

type MockEpisodeDB struct {
	mock.Mock
}

func (m *MockEpisodeDB) Create(ctx context.Context, episode *model.Episode) error {
	args := m.Called(ctx, episode)
	return args.Error(0)
}

func (m *MockEpisodeDB) FindRecent(ctx context.Context, limit int) ([]*model.Episode, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Episode), args.Error(1)
}

var _ outbound.EpisodeDatabasePort = (*MockEpisodeDB)(nil)

type MockScriptCache struct {
	mock.Mock
}

func (m *MockScriptCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockScriptCache) Set(ctx context.Context, key, script string) error {
	args := m.Called(ctx, key, script)
	return args.Error(0)
}

var _ outbound.ScriptCachePort = (*MockScriptCache)(nil)

// --- Helpers ---

var fixedNow = time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC)

func newTestDomain(writer *MockScriptWriter, speech outbound.SpeechSynthesizerPort, store *MockStore, mirror outbound.ArtifactMirrorPort, episodes outbound.EpisodeDatabasePort, cache outbound.ScriptCachePort) *Domain {
	d := NewDomain(writer, speech, store, mirror, episodes, cache, nil, DefaultConfig(), zap.NewNop())
	d.now = func() time.Time { return fixedNow }
	return d
}

// --- Tests ---

func TestDomain_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("script only", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		d := newTestDomain(writer, nil, store, nil, nil, nil)

		writer.On("WriteScript", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "Space Travel") && strings.Contains(p, "playful") && strings.Contains(p, "5 minutes")
		}), "llama3.2:3b").Return("Welcome to the show.", nil)
		store.On("Save", mock.Anything, "space-travel-20260314-093005.txt").
			Return("output/space-travel-20260314-093005.txt", nil)

		result, err := d.Generate(ctx, &model.GenerationRequest{
			Topic:           "Space Travel",
			Style:           "playful",
			DurationMinutes: 5,
			SkipAudio:       true,
		})

		require.NoError(t, err)
		assert.Equal(t, "Welcome to the show.", result.Script)
		assert.Equal(t, "output/space-travel-20260314-093005.txt", result.ScriptPath)
		assert.Empty(t, result.AudioPath)
		assert.Empty(t, result.EpisodeID)
		assert.Equal(t, "Welcome to the show.", store.saved["space-travel-20260314-093005.txt"])
		writer.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("with audio", func(t *testing.T) {
		writer := new(MockScriptWriter)
		speech := new(MockSpeech)
		store := new(MockStore)
		d := newTestDomain(writer, speech, store, nil, nil, nil)

		writer.On("WriteScript", mock.Anything, mock.Anything, "llama3.2:3b").Return("Hello listeners.", nil)
		speech.On("Synthesize", mock.Anything, "Hello listeners.").
			Return(io.NopCloser(strings.NewReader("ID3audio")), nil)
		store.On("Save", mock.Anything, "ai-the-future-20260314-093005.txt").
			Return("output/ai-the-future-20260314-093005.txt", nil)
		store.On("Save", mock.Anything, "ai-the-future-20260314-093005.mp3").
			Return("output/ai-the-future-20260314-093005.mp3", nil)

		result, err := d.Generate(ctx, &model.GenerationRequest{Topic: "AI & The Future!!!"})

		require.NoError(t, err)
		assert.Equal(t, "output/ai-the-future-20260314-093005.mp3", result.AudioPath)
		assert.Equal(t, "ID3audio", store.saved["ai-the-future-20260314-093005.mp3"])
		speech.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("applies defaults", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		d := newTestDomain(writer, nil, store, nil, nil, nil)

		expected := BuildPrompt("Rivers", "conversational", 3)
		writer.On("WriteScript", mock.Anything, expected, "llama3.2:3b").Return("Rivers flow.", nil)
		store.On("Save", mock.Anything, mock.Anything).Return("output/rivers.txt", nil)

		_, err := d.Generate(ctx, &model.GenerationRequest{
			Topic:           "  Rivers  ",
			Style:           "   ",
			DurationMinutes: 0,
			SkipAudio:       true,
		})

		require.NoError(t, err)
		writer.AssertExpectations(t)
	})

	t.Run("strips markup from topic", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		d := newTestDomain(writer, nil, store, nil, nil, nil)

		writer.On("WriteScript", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "about: Cats & Dogs.") && !strings.Contains(p, "<b>")
		}), mock.Anything).Return("Pets.", nil)
		store.On("Save", mock.Anything, "cats-dogs-20260314-093005.txt").Return("output/cats-dogs.txt", nil)

		_, err := d.Generate(ctx, &model.GenerationRequest{Topic: "<b>Cats</b> & Dogs", SkipAudio: true})

		require.NoError(t, err)
		writer.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("topic required", func(t *testing.T) {
		d := newTestDomain(new(MockScriptWriter), nil, new(MockStore), nil, nil, nil)

		for _, topic := range []string{"", "   ", "<script></script>"} {
			_, err := d.Generate(ctx, &model.GenerationRequest{Topic: topic, SkipAudio: true})
			assert.ErrorIs(t, err, ErrTopicRequired, "topic %q", topic)
		}

		_, err := d.Generate(ctx, nil)
		assert.ErrorIs(t, err, ErrTopicRequired)
	})

	t.Run("speech not configured", func(t *testing.T) {
		writer := new(MockScriptWriter)
		d := newTestDomain(writer, nil, new(MockStore), nil, nil, nil)

		_, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Bees"})

		assert.ErrorIs(t, err, ErrSpeechUnavailable)
		writer.AssertNotCalled(t, "WriteScript", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("writer failure", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		d := newTestDomain(writer, nil, store, nil, nil, nil)

		writer.On("WriteScript", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("connection refused"))

		_, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Bees", SkipAudio: true})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("empty script", func(t *testing.T) {
		writer := new(MockScriptWriter)
		d := newTestDomain(writer, nil, new(MockStore), nil, nil, nil)

		writer.On("WriteScript", mock.Anything, mock.Anything, mock.Anything).Return(" \n ", nil)

		_, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Bees", SkipAudio: true})

		assert.ErrorIs(t, err, ErrEmptyScript)
	})

	t.Run("speech failure", func(t *testing.T) {
		writer := new(MockScriptWriter)
		speech := new(MockSpeech)
		store := new(MockStore)
		d := newTestDomain(writer, speech, store, nil, nil, nil)

		writer.On("WriteScript", mock.Anything, mock.Anything, mock.Anything).Return("Buzz.", nil)
		store.On("Save", mock.Anything, mock.Anything).Return("output/bees.txt", nil)
		speech.On("Synthesize", mock.Anything, "Buzz.").Return(nil, errors.New("quota exceeded"))

		_, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Bees"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

func TestDomain_Generate_Cache(t *testing.T) {
	ctx := context.Background()

	t.Run("hit skips writer", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		cache := new(MockScriptCache)
		d := newTestDomain(writer, nil, store, nil, nil, cache)

		cache.On("Get", mock.Anything, mock.Anything).Return("Cached script.", true, nil)
		store.On("Save", mock.Anything, mock.Anything).Return("output/bees.txt", nil)

		result, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Bees", SkipAudio: true})

		require.NoError(t, err)
		assert.Equal(t, "Cached script.", result.Script)
		writer.AssertNotCalled(t, "WriteScript", mock.Anything, mock.Anything, mock.Anything)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("miss stores script", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		cache := new(MockScriptCache)
		d := newTestDomain(writer, nil, store, nil, nil, cache)

		key := ScriptCacheKey("llama3.2:3b", BuildPrompt("Bees", "conversational", 3))
		cache.On("Get", mock.Anything, key).Return("", false, nil)
		writer.On("WriteScript", mock.Anything, mock.Anything, mock.Anything).Return("Fresh script.", nil)
		cache.On("Set", mock.Anything, key, "Fresh script.").Return(nil)
		store.On("Save", mock.Anything, mock.Anything).Return("output/bees.txt", nil)

		_, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Bees", SkipAudio: true})

		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("cache errors are ignored", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		cache := new(MockScriptCache)
		d := newTestDomain(writer, nil, store, nil, nil, cache)

		cache.On("Get", mock.Anything, mock.Anything).Return("", false, errors.New("redis down"))
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
		writer.On("WriteScript", mock.Anything, mock.Anything, mock.Anything).Return("Fresh script.", nil)
		store.On("Save", mock.Anything, mock.Anything).Return("output/bees.txt", nil)

		result, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Bees", SkipAudio: true})

		require.NoError(t, err)
		assert.Equal(t, "Fresh script.", result.Script)
	})
}

func TestDomain_Generate_BestEffortSinks(t *testing.T) {
	ctx := context.Background()

	t.Run("mirror and history", func(t *testing.T) {
		writer := new(MockScriptWriter)
		speech := new(MockSpeech)
		store := new(MockStore)
		mirror := new(MockMirror)
		episodes := new(MockEpisodeDB)
		d := newTestDomain(writer, speech, store, mirror, episodes, nil)

		writer.On("WriteScript", mock.Anything, mock.Anything, mock.Anything).Return("Hello.", nil)
		speech.On("Synthesize", mock.Anything, "Hello.").Return(io.NopCloser(strings.NewReader("mp3")), nil)
		store.On("Save", mock.Anything, "owls-20260314-093005.txt").Return("output/owls-20260314-093005.txt", nil)
		store.On("Save", mock.Anything, "owls-20260314-093005.mp3").Return("output/owls-20260314-093005.mp3", nil)
		mirror.On("Put", mock.Anything, "owls-20260314-093005.txt", int64(6), "text/plain; charset=utf-8").Return(nil)
		mirror.On("Put", mock.Anything, "owls-20260314-093005.mp3", int64(3), "audio/mpeg").Return(nil)

		var stored *model.Episode
		episodes.On("Create", mock.Anything, mock.AnythingOfType("*model.Episode")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*model.Episode) }).
			Return(nil)

		result, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Owls", Model: "mistral"})

		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, stored.ID.String(), result.EpisodeID)
		assert.Equal(t, "Owls", stored.Topic)
		assert.Equal(t, "mistral", stored.Model)
		assert.Equal(t, 6, stored.ScriptChars)
		assert.Equal(t, "output/owls-20260314-093005.mp3", stored.AudioPath)
		mirror.AssertExpectations(t)
		episodes.AssertExpectations(t)
	})

	t.Run("failures do not fail generation", func(t *testing.T) {
		writer := new(MockScriptWriter)
		store := new(MockStore)
		mirror := new(MockMirror)
		episodes := new(MockEpisodeDB)
		d := newTestDomain(writer, nil, store, mirror, episodes, nil)

		writer.On("WriteScript", mock.Anything, mock.Anything, mock.Anything).Return("Hello.", nil)
		store.On("Save", mock.Anything, mock.Anything).Return("output/owls.txt", nil)
		mirror.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("access denied"))
		episodes.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

		result, err := d.Generate(ctx, &model.GenerationRequest{Topic: "Owls", SkipAudio: true})

		require.NoError(t, err)
		assert.Equal(t, "output/owls.txt", result.ScriptPath)
		assert.Empty(t, result.EpisodeID)
	})
}

func TestDomain_ListEpisodes(t *testing.T) {
	ctx := context.Background()

	t.Run("no database", func(t *testing.T) {
		d := newTestDomain(nil, nil, nil, nil, nil, nil)

		episodes, err := d.ListEpisodes(ctx, 10)

		require.NoError(t, err)
		assert.Empty(t, episodes)
	})

	t.Run("limit is capped", func(t *testing.T) {
		db := new(MockEpisodeDB)
		d := newTestDomain(nil, nil, nil, nil, db, nil)

		db.On("FindRecent", mock.Anything, 100).Return([]*model.Episode{{Topic: "Owls"}}, nil).Twice()

		_, err := d.ListEpisodes(ctx, 0)
		require.NoError(t, err)
		episodes, err := d.ListEpisodes(ctx, 5000)
		require.NoError(t, err)
		assert.Len(t, episodes, 1)
		db.AssertExpectations(t)
	})

	t.Run("database error", func(t *testing.T) {
		db := new(MockEpisodeDB)
		d := newTestDomain(nil, nil, nil, nil, db, nil)

		db.On("FindRecent", mock.Anything, 20).Return(nil, errors.New("db down"))

		_, err := d.ListEpisodes(ctx, 20)
		assert.Error(t, err)
	})
}

func TestDomain_ResolveArtifact(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store := new(MockStore)
		d := newTestDomain(nil, nil, store, nil, nil, nil)

		store.On("Resolve", mock.Anything, "output/a.txt").Return("/srv/output/a.txt", nil)

		path, err := d.ResolveArtifact(ctx, model.ArtifactScript, "output/a.txt")

		require.NoError(t, err)
		assert.Equal(t, "/srv/output/a.txt", path)
	})

	t.Run("empty path", func(t *testing.T) {
		store := new(MockStore)
		d := newTestDomain(nil, nil, store, nil, nil, nil)

		_, err := d.ResolveArtifact(ctx, model.ArtifactAudio, "")

		assert.ErrorIs(t, err, ErrArtifactNotFound)
		store.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("store rejects path", func(t *testing.T) {
		store := new(MockStore)
		d := newTestDomain(nil, nil, store, nil, nil, nil)

		store.On("Resolve", mock.Anything, "../etc/passwd").Return("", errors.New("outside output directory"))

		_, err := d.ResolveArtifact(ctx, model.ArtifactScript, "../etc/passwd")

		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})
}
