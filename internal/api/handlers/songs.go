package handlers

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/songforge/songforge-api/internal/api/middleware"
	"github.com/songforge/songforge-api/internal/composer"
	"github.com/songforge/songforge-api/internal/database"
	"github.com/songforge/songforge-api/internal/logger"
	"github.com/songforge/songforge-api/internal/metrics"
	"github.com/songforge/songforge-api/internal/mix"
	"github.com/songforge/songforge-api/internal/models"
	"github.com/songforge/songforge-api/internal/synth"
	"github.com/songforge/songforge-api/internal/theory"
)

const (
	defaultKeyName    = "C"
	defaultKeyOctave  = 4
	renderTimeoutSecs = 120
	defaultMood       = models.MoodHappy
)

type SongsHandler struct {
	store     database.SongStore
	mixEngine *mix.Engine
	cw        *metrics.Client
}

func NewSongsHandler(store database.SongStore, synthEngine *synth.Engine, cw *metrics.Client) *SongsHandler {
	return &SongsHandler{
		store:     store,
		mixEngine: mix.NewEngine(synthEngine, mix.DefaultParams()),
		cw:        cw,
	}
}

type GenerateRequest struct {
	Mood string `json:"mood"`
	Key  string `json:"key"`
	BPM  int    `json:"bpm"`
	Seed *int64 `json:"seed"`
}

type GenerateResponse struct {
	ID   string       `json:"id"`
	Seed int64        `json:"seed"`
	Song *models.Song `json:"song"`
}

// Generate composes a full song from a mood and stores it under a fresh id.
func (h *SongsHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mood := req.Mood
	if mood == "" {
		mood = defaultMood
	}

	keyName := req.Key
	if keyName == "" {
		keyName = defaultKeyName
	}
	keyRoot, err := theory.NoteToMidi(keyName, defaultKeyOctave)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown key: " + keyName})
		return
	}

	bpm := req.BPM
	if bpm <= 0 {
		bpm = composer.DefaultBPM
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	if userID, ok := middleware.GetUserID(c); ok {
		logger.Debug("Generation requested", logger.Fields{
			"user_id": userID,
			"mood":    mood,
			"seed":    seed,
		})
	}

	start := time.Now()
	comp := composer.New(rand.New(rand.NewSource(seed)))
	song := comp.GenerateFullSong(mood, keyRoot, bpm)

	id := uuid.New().String()
	if err := h.store.Save(id, song, seed); err != nil {
		logger.Error("Failed to persist song", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store song"})
		return
	}

	eventCount := len(song.AllEvents())
	h.cw.RecordGeneration(mood, eventCount, time.Since(start))
	logger.Info("Song generated", logger.Fields{
		"song_id": id,
		"mood":    mood,
		"key":     theory.NoteName(keyRoot),
		"events":  eventCount,
	})

	c.JSON(http.StatusOK, GenerateResponse{ID: id, Seed: seed, Song: song})
}

// Get returns a stored song by id.
func (h *SongsHandler) Get(c *gin.Context) {
	id := c.Param("id")

	song, err := h.store.Load(id)
	if err != nil {
		if errors.Is(err, database.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
			return
		}
		logger.Error("Failed to load song", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load song"})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{ID: id, Song: song})
}

type RegenerateRequest struct {
	Seed *int64 `json:"seed"`
}

// RegenerateSection rebuilds one section of a stored song while leaving
// every other section's events untouched.
func (h *SongsHandler) RegenerateSection(c *gin.Context) {
	id := c.Param("id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section index must be an integer"})
		return
	}

	// Body is optional; an empty body means "use a fresh seed".
	var req RegenerateRequest
	_ = c.ShouldBindJSON(&req)

	song, err := h.store.Load(id)
	if err != nil {
		if errors.Is(err, database.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
			return
		}
		logger.Error("Failed to load song", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load song"})
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	comp := composer.New(rand.New(rand.NewSource(seed)))
	if err := comp.RegenerateSection(song, index); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Save(id, song, seed); err != nil {
		logger.Error("Failed to persist regenerated song", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store song"})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{ID: id, Seed: seed, Song: song})
}

type RenderResponse struct {
	ID         string       `json:"id"`
	SampleRate int          `json:"sample_rate"`
	Analysis   mix.Analysis `json:"analysis"`
}

// Render synthesizes and mixes a stored song to a stereo master, then
// reports a spectrum analysis of the result.
func (h *SongsHandler) Render(c *gin.Context) {
	id := c.Param("id")

	song, err := h.store.Load(id)
	if err != nil {
		if errors.Is(err, database.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
			return
		}
		logger.Error("Failed to load song", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load song"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), renderTimeoutSecs*time.Second)
	defer cancel()

	start := time.Now()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	buffer, err := h.mixEngine.RenderSong(ctx, song, rng)
	if err != nil {
		h.cw.RecordRender(time.Since(start), 0, false)
		logger.Error("Render failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	analysis := mix.Analyze(buffer)
	h.cw.RecordRender(time.Since(start), buffer.Duration(), true)
	logger.Info("Song rendered", logger.Fields{
		"song_id": id,
		"seconds": buffer.Duration(),
		"peak":    analysis.Peak,
	})

	c.JSON(http.StatusOK, RenderResponse{
		ID:         id,
		SampleRate: buffer.SampleRate,
		Analysis:   analysis,
	})
}
