// Package storage persists the autoposting state: the destination chat and
// the ordered queue of not-yet-published posts. The on-disk format is a single
// JSON document and is the source of truth across restarts.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"autopostbot/core/logger"
	"log/slog"
)

// Button is a (label, url) pair rendered as one inline link button.
// It marshals as a two-element JSON array to keep the wire format stable.
type Button struct {
	Label string
	URL   string
}

// MarshalJSON encodes the button as ["label", "url"].
func (b Button) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{b.Label, b.URL})
}

// UnmarshalJSON decodes a ["label", "url"] pair.
func (b *Button) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("storage: button must be a [label, url] pair, got %d elements", len(pair))
	}
	b.Label = pair[0]
	b.URL = pair[1]
	return nil
}

// Post is one queued publication. Posts are immutable once enqueued.
type Post struct {
	Text    string   `json:"text"`
	Photo   *string  `json:"photo"`
	Buttons []Button `json:"buttons"`
}

// State is the persisted document.
type State struct {
	ChatID *int64 `json:"chat_id"`
	Posts  []Post `json:"posts"`
}

// Store owns the persisted state. All mutations are serialized by a single
// mutex and written to disk before the mutating call returns.
type Store struct {
	mu    sync.Mutex
	path  string
	state State
}

// Open loads the state from path, falling back to an empty default when the
// file does not exist. A file that exists but cannot be parsed is preserved
// under <path>.corrupt and replaced with the default state, so potentially
// recoverable data is never silently discarded.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		logger.Info(context.Background(), "store", "store.load",
			slog.String("status", "ok"),
			slog.String("path", path),
			slog.String("cause", "absent"),
		)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		backup := path + ".corrupt"
		if renameErr := os.Rename(path, backup); renameErr != nil {
			logger.Error(context.Background(), "store", "store.load.corrupt",
				slog.String("status", "fail"),
				slog.String("path", path),
				slog.String("err", renameErr.Error()),
			)
		} else {
			logger.Warn(context.Background(), "store", "store.load.corrupt",
				slog.String("status", "skip"),
				slog.String("path", path),
				slog.String("cause", err.Error()),
				slog.String("backup", backup),
			)
		}
		return s, nil
	}

	s.state = st
	logger.Info(context.Background(), "store", "store.load",
		slog.String("status", "ok"),
		slog.String("path", path),
		slog.Int("queue_len", len(st.Posts)),
	)
	return s, nil
}

// ChatID returns the configured destination chat, if any.
func (s *Store) ChatID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ChatID == nil {
		return 0, false
	}
	return *s.state.ChatID, true
}

// SetChat updates the destination chat and persists the change.
func (s *Store) SetChat(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ChatID = &id
	return s.save()
}

// Enqueue appends a post to the tail of the queue and persists the change.
// It returns the resulting queue length.
func (s *Store) Enqueue(p Post) (int, error) {
	if p.Buttons == nil {
		p.Buttons = []Button{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Posts = append(s.state.Posts, p)
	if err := s.save(); err != nil {
		// Roll back so a retried enqueue does not duplicate the post.
		s.state.Posts = s.state.Posts[:len(s.state.Posts)-1]
		return 0, err
	}
	return len(s.state.Posts), nil
}

// DequeueHead removes the oldest post when a destination is configured and
// the queue is non-empty. The removal is persisted before the post is handed
// to the caller, so a crash mid-delivery never redelivers it.
func (s *Store) DequeueHead() (int64, Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ChatID == nil || len(s.state.Posts) == 0 {
		return 0, Post{}, false
	}
	head := s.state.Posts[0]
	s.state.Posts = append([]Post(nil), s.state.Posts[1:]...)
	if err := s.save(); err != nil {
		// The pop stands: at-most-once delivery beats redelivering on the
		// next tick against a stale file.
		logger.Error(context.Background(), "store", "store.save",
			slog.String("status", "fail"),
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
	}
	return *s.state.ChatID, head, true
}

// Posts returns a snapshot copy of the queue in FIFO order.
func (s *Store) Posts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Post, len(s.state.Posts))
	copy(out, s.state.Posts)
	return out
}

// Len reports the current queue length.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Posts)
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// save writes the state atomically: temp file in the same directory, fsync,
// rename. A reader never observes a half-written document. Callers must hold mu.
func (s *Store) save() error {
	st := s.state
	if st.Posts == nil {
		st.Posts = []Post{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("storage: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}
