package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/songforge/songforge-api/internal/database"
	"github.com/songforge/songforge-api/internal/metrics"
	"github.com/songforge/songforge-api/internal/models"
	"github.com/songforge/songforge-api/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, database.SongStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := database.NewMemoryStore()
	cw, err := metrics.NewClient(context.Background(), "test")
	require.NoError(t, err)

	h := NewSongsHandler(store, synth.NewEngine(8000), cw)

	router := gin.New()
	router.POST("/api/v1/songs/generate", h.Generate)
	router.GET("/api/v1/songs/:id", h.Get)
	router.POST("/api/v1/songs/:id/sections/:index/regenerate", h.RegenerateSection)
	router.POST("/api/v1/songs/:id/render", h.Render)
	return router, store
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerate(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/v1/songs/generate", GenerateRequest{Mood: models.MoodSad, BPM: 90})
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	require.NotNil(t, resp.Song)
	assert.Equal(t, models.MoodSad, resp.Song.Mood)
	assert.Equal(t, "minor", resp.Song.KeyMode)
	assert.Equal(t, 90, resp.Song.BPM)
	assert.Len(t, resp.Song.Sections, 7)
	for _, track := range models.TrackNames {
		assert.NotEmpty(t, resp.Song.Tracks[track], "track %q is empty", track)
	}
}

func TestGenerate_Defaults(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/v1/songs/generate", GenerateRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.MoodHappy, resp.Song.Mood)
	assert.Equal(t, 60, resp.Song.KeyRootMidi)
	assert.Equal(t, 120, resp.Song.BPM)
}

func TestGenerate_SeedIsReproducible(t *testing.T) {
	router, _ := newTestRouter(t)
	seed := int64(42)

	first := postJSON(router, "/api/v1/songs/generate", GenerateRequest{Mood: models.MoodChill, Seed: &seed})
	second := postJSON(router, "/api/v1/songs/generate", GenerateRequest{Mood: models.MoodChill, Seed: &seed})
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b GenerateResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, seed, a.Seed)
	assert.Equal(t, a.Song, b.Song)
}

func TestGenerate_UnknownKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/v1/songs/generate", GenerateRequest{Key: "H"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/v1/songs/generate", GenerateRequest{Mood: models.MoodHappy})
	require.Equal(t, http.StatusOK, w.Code)
	var created GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/songs/"+created.ID, nil)
	got := httptest.NewRecorder()
	router.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &resp))
	assert.Equal(t, created.Song, resp.Song)
}

func TestGet_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/songs/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegenerateSection(t *testing.T) {
	router, store := newTestRouter(t)

	seed := int64(7)
	w := postJSON(router, "/api/v1/songs/generate", GenerateRequest{Mood: models.MoodHappy, Seed: &seed})
	require.Equal(t, http.StatusOK, w.Code)
	var created GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(router, "/api/v1/songs/"+created.ID+"/sections/2/regenerate", RegenerateRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Song.Sections, 7)
	assert.Equal(t, created.Song.Sections[2].Name, resp.Song.Sections[2].Name)

	// The regenerated song is persisted.
	stored, err := store.Load(created.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Song, stored)
}

func TestRegenerateSection_BadIndex(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/v1/songs/generate", GenerateRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	var created GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(router, "/api/v1/songs/"+created.ID+"/sections/99/regenerate", RegenerateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/api/v1/songs/"+created.ID+"/sections/abc/regenerate", RegenerateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegenerateSection_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/v1/songs/nope/sections/0/regenerate", RegenerateRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRender(t *testing.T) {
	router, _ := newTestRouter(t)

	seed := int64(3)
	w := postJSON(router, "/api/v1/songs/generate", GenerateRequest{Mood: models.MoodChill, BPM: 240, Seed: &seed})
	require.Equal(t, http.StatusOK, w.Code)
	var created GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(router, "/api/v1/songs/"+created.ID+"/render", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, 8000, resp.SampleRate)
	assert.Greater(t, resp.Analysis.Seconds, 28.0)
	assert.Greater(t, resp.Analysis.Peak, 0.0)
	assert.LessOrEqual(t, resp.Analysis.Peak, 0.94+1e-9)
}

func TestRender_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/v1/songs/nope/render", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
