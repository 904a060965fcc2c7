package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/katakuxiko/pdfqa/internal/model"
	"github.com/katakuxiko/pdfqa/internal/util"
	"go.uber.org/zap"
)

const fallbackName = "document.pdf"

// DocumentStore is a single-slot upload directory: it holds at most the most
// recently uploaded file. It does no locking of its own; callers serialise
// Replace.
type DocumentStore struct {
	dir string
	log *zap.Logger
}

func NewDocumentStore(dir string, log *zap.Logger) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DocumentStore{dir: dir, log: log}, nil
}

func (s *DocumentStore) Dir() string { return s.dir }

// Replace empties the directory, best effort, then writes r under the base
// name of filename.
func (s *DocumentStore) Replace(filename string, r io.Reader) (model.Document, error) {
	s.clear()

	name := util.SafeFilename(filename, fallbackName)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("create %s: %w", name, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return model.Document{}, fmt.Errorf("write %s: %w", name, err)
	}

	return model.Document{
		ID:         uuid.NewString(),
		Name:       name,
		Path:       path,
		Size:       n,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// Current returns the file in the slot, if any.
func (s *DocumentStore) Current() (model.Document, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return model.Document{}, false, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return model.Document{}, false, err
		}
		return model.Document{
			Name:       e.Name(),
			Path:       filepath.Join(s.dir, e.Name()),
			Size:       info.Size(),
			UploadedAt: info.ModTime().UTC(),
		}, true, nil
	}
	return model.Document{}, false, nil
}

func (s *DocumentStore) clear() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn("list upload dir", zap.String("dir", s.dir), zap.Error(err))
		return
	}
	for _, e := range entries {
		p := filepath.Join(s.dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			s.log.Warn("remove old upload", zap.String("path", p), zap.Error(err))
		}
	}
}
