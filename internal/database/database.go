// Package database persists generated songs so later regeneration and
// render calls can operate on them by ID.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/songforge/songforge-api/internal/models"
)

// ErrSongNotFound is returned when no song exists for an ID.
var ErrSongNotFound = errors.New("song not found")

// SongRecord is the persisted form of a generated song: its parameters
// for listing, and the full Song as JSON.
type SongRecord struct {
	ID        string `gorm:"primaryKey"`
	Mood      string
	KeyRoot   int
	KeyMode   string
	BPM       int
	Seed      int64
	Data      []byte `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SongStore stores and retrieves songs by ID.
type SongStore interface {
	Save(id string, song *models.Song, seed int64) error
	Load(id string) (*models.Song, error)
	Delete(id string) error
}

// Connect opens the Postgres connection.
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate runs schema migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&SongRecord{})
}

// DBStore is the Postgres-backed SongStore.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Save(id string, song *models.Song, seed int64) error {
	data, err := json.Marshal(song)
	if err != nil {
		return fmt.Errorf("failed to marshal song: %w", err)
	}
	record := SongRecord{
		ID:      id,
		Mood:    song.Mood,
		KeyRoot: song.KeyRootMidi,
		KeyMode: song.KeyMode,
		BPM:     song.BPM,
		Seed:    seed,
		Data:    data,
	}
	return s.db.Save(&record).Error
}

func (s *DBStore) Load(id string) (*models.Song, error) {
	var record SongRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, err
	}
	var song models.Song
	if err := json.Unmarshal(record.Data, &song); err != nil {
		return nil, fmt.Errorf("failed to unmarshal song %s: %w", id, err)
	}
	return &song, nil
}

func (s *DBStore) Delete(id string) error {
	return s.db.Delete(&SongRecord{}, "id = ?", id).Error
}

// MemoryStore keeps songs in process memory; used when no DATABASE_URL
// is configured (local dev, tests).
type MemoryStore struct {
	mu    sync.RWMutex
	songs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{songs: make(map[string][]byte)}
}

func (s *MemoryStore) Save(id string, song *models.Song, _ int64) error {
	data, err := json.Marshal(song)
	if err != nil {
		return fmt.Errorf("failed to marshal song: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.songs[id] = data
	return nil
}

func (s *MemoryStore) Load(id string) (*models.Song, error) {
	s.mu.RLock()
	data, ok := s.songs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSongNotFound
	}
	var song models.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, fmt.Errorf("failed to unmarshal song %s: %w", id, err)
	}
	return &song, nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.songs, id)
	return nil
}
