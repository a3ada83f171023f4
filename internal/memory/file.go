package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// FileStore keeps memory in a single JSON file. A missing file is an empty
// memory; an unreadable or malformed one is logged and treated as empty, and
// gets replaced on the next write.
type FileStore struct {
	mu     sync.Mutex
	path   string
	data   Data
	logger zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads path if it exists.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	s := &FileStore{path: path, logger: logger}
	s.data = s.load()
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() Data {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("cannot read memory file, starting empty")
		}
		return Data{}
	}
	if err := validateDocument(raw); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("ignoring malformed memory file")
		return Data{}
	}
	d, err := decodeData(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("ignoring malformed memory file")
		return Data{}
	}
	return d
}

// commitLocked persists next and only then makes it the current state, so a
// failed write leaves memory exactly as it was on disk.
func (s *FileStore) commitLocked(next Data) error {
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// writeLocked writes through a temp file and rename so a crash never leaves a
// truncated document.
func (s *FileStore) writeLocked(d Data) error {
	raw, err := encodeData(d)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create memory directory")
	}
	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp memory file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write memory file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close memory file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "replace %s", s.path)
	}
	return nil
}

func (s *FileStore) GetContext(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FormatContext(s.data), nil
}

func (s *FileStore) UpdateProfile(_ context.Context, key, value string) error {
	if key == "" {
		return errors.New("profile key is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data.clone()
	next.Profile = next.Profile.Set(key, value)
	return s.commitLocked(next)
}

func (s *FileStore) AddPreference(_ context.Context, p string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsString(s.data.Preferences, p) {
		return false, nil
	}
	next := s.data.clone()
	next.Preferences = append(next.Preferences, p)
	if err := s.commitLocked(next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) AddFact(_ context.Context, f string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsString(s.data.Facts, f) {
		return false, nil
	}
	next := s.data.clone()
	next.Facts = append(next.Facts, f)
	if err := s.commitLocked(next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) Snapshot(context.Context) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone(), nil
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(Data{})
}

func (s *FileStore) Close() error { return nil }
