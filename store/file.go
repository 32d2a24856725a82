package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/raushankrgupta/fitscroll/models"
)

const (
	profileFile = "profile.json"
	feedFile    = "feed.json"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// FileStore keeps one directory of JSON documents per user.
// Writes go through a temp file and rename so readers never see partial files.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) userPath(userID, name string) string {
	safe := unsafeChars.ReplaceAllString(userID, "_")
	if safe == "" || safe == "." || safe == ".." {
		safe = "_"
	}
	return filepath.Join(s.dir, safe, name)
}

func (s *FileStore) LoadProfile(_ context.Context, userID string) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p models.UserProfile
	err := readJSON(s.userPath(userID, profileFile), &p)
	if errors.Is(err, fs.ErrNotExist) {
		return models.UserProfile{}, nil
	}
	return p, err
}

func (s *FileStore) SaveProfile(_ context.Context, userID string, p models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.userPath(userID, profileFile), p)
}

func (s *FileStore) LoadCachedFeed(_ context.Context, userID string) ([]models.FeedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFeed(userID)
}

func (s *FileStore) SaveCachedFeed(_ context.Context, userID string, entries []models.FeedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entries == nil {
		entries = []models.FeedEntry{}
	}
	return writeJSON(s.userPath(userID, feedFile), entries)
}

func (s *FileStore) ToggleLike(_ context.Context, userID, entryID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadFeed(userID)
	if err != nil {
		return false, err
	}
	i := findEntry(entries, entryID)
	if i < 0 {
		return false, ErrNotFound
	}
	liked := toggle(&entries[i])
	return liked, writeJSON(s.userPath(userID, feedFile), entries)
}

func (s *FileStore) LoadComments(_ context.Context, userID, entryID string) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadFeed(userID)
	if err != nil {
		return nil, err
	}
	i := findEntry(entries, entryID)
	if i < 0 {
		return nil, ErrNotFound
	}
	if entries[i].Comments == nil {
		return []models.Comment{}, nil
	}
	return entries[i].Comments, nil
}

func (s *FileStore) AppendComment(_ context.Context, userID, entryID, text string) ([]models.Comment, error) {
	c, err := newComment(userID, text, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadFeed(userID)
	if err != nil {
		return nil, err
	}
	i := findEntry(entries, entryID)
	if i < 0 {
		return nil, ErrNotFound
	}
	entries[i].Comments = append(entries[i].Comments, c)
	if err := writeJSON(s.userPath(userID, feedFile), entries); err != nil {
		return nil, err
	}
	return entries[i].Comments, nil
}

func (s *FileStore) loadFeed(userID string) ([]models.FeedEntry, error) {
	var entries []models.FeedEntry
	err := readJSON(s.userPath(userID, feedFile), &entries)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.FeedEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.FeedEntry{}
	}
	return entries, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
