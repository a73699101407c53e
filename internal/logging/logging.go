// Package logging tees the process log to stderr, an append-only logs.txt
// in the data directory and the event hub, so the HTTP surface can both
// read history and stream lines live.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"leadscout-engine/internal/events"
)

const FileName = "logs.txt"

type Sink struct {
	path string
	hub  *events.Hub

	mu   sync.Mutex
	file *os.File
}

// Setup opens (or creates) the log file and redirects the standard logger
// through the sink. The returned Sink also serves read/clear requests.
func Setup(dataDir string, hub *events.Hub) (*Sink, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	s := &Sink{path: path, hub: hub, file: f}
	log.SetOutput(io.MultiWriter(os.Stderr, s))
	return s, nil
}

// Write appends one log line and fans it out to subscribers. Implements
// io.Writer so it can sit behind the standard logger.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		if _, err := s.file.Write(p); err != nil {
			fmt.Fprintf(os.Stderr, "log write failed: %v\n", err)
		}
	}
	if s.hub != nil {
		s.hub.Publish(events.Make(events.TypeLogLine, strings.TrimRight(string(p), "\n")))
	}
	return len(p), nil
}

// Read returns the whole log history; a missing file reads as empty.
func (s *Sink) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// Clear truncates the log file in place.
func (s *Sink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.WriteFile(s.path, nil, 0o644)
	}
	if err := s.file.Truncate(0); err != nil {
		return err
	}
	_, err := s.file.Seek(0, io.SeekStart)
	return err
}

// Close detaches the standard logger from the file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.SetOutput(os.Stderr)
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
