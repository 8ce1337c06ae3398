package seen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdulachik/weibobot/internal/domain"
)

// FileStore keeps the history in a text file, one identifier per line.
type FileStore struct {
	path         string
	ids          *Set
	needsNewline bool // last record on disk lacks its terminator
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by the file at path. The file is not
// touched until Load or Append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, ids: NewSet()}
}

// Load reads the file. A missing file is an empty history.
func (s *FileStore) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("seen file does not exist yet", "path", s.path)
		s.ids = NewSet()
		s.needsNewline = false
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen file: %w", err)
	}

	s.ids = NewSet()
	for _, line := range strings.Split(string(data), "\n") {
		if id := normalizeID(strings.TrimSuffix(line, "\r")); id != "" {
			s.ids.Add(id)
		}
	}
	s.needsNewline = len(data) > 0 && data[len(data)-1] != '\n'

	return s.ids.Slice(), nil
}

// Contains reports whether id is recorded.
func (s *FileStore) Contains(id string) bool {
	return s.ids.Has(normalizeID(id))
}

// Append writes the new ids and syncs the file before returning.
func (s *FileStore) Append(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fresh := s.ids.Missing(normalizeIDs(ids))
	if len(fresh) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if s.needsNewline {
		buf.WriteByte('\n')
	}
	for _, id := range fresh {
		buf.WriteString(id)
		buf.WriteByte('\n')
	}

	if err := s.write(buf.Bytes()); err != nil {
		return &domain.StorageWriteError{Location: s.path, Err: err}
	}

	s.needsNewline = false
	for _, id := range fresh {
		s.ids.Add(id)
	}
	return nil
}

func (s *FileStore) write(data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Len returns the number of recorded ids.
func (s *FileStore) Len() int { return s.ids.Len() }

// Location returns the file path.
func (s *FileStore) Location() string { return s.path }

// Close is a no-op; the file is only held open during Append.
func (s *FileStore) Close() error { return nil }
