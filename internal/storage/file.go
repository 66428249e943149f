package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/park285/numguess/internal/domain"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileRepository stores one indented JSON document per profile under dir.
// Writes go through a temp file and rename so a crash never leaves a
// truncated profile behind.
type FileRepository struct {
	dir string
	now func() time.Time
}

func NewFileRepository(dir string) (*FileRepository, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("file repository: empty data dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileRepository{dir: dir, now: time.Now}, nil
}

func (r *FileRepository) path(id string) string {
	name := unsafeFileChars.ReplaceAllString(id, "_")
	return filepath.Join(r.dir, "profile_"+name+".json")
}

func (r *FileRepository) Load(ctx context.Context, id string) (*domain.Profile, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(r.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewProfile(id, r.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", id, err)
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return Normalize(&p, id, r.now()), nil
}

func (r *FileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return ErrNilProfile
	}
	id, err := validateID(profile.ID)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", id, err)
	}
	tmp, err := os.CreateTemp(r.dir, ".profile-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write profile %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close profile %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), r.path(id)); err != nil {
		return fmt.Errorf("replace profile %s: %w", id, err)
	}
	return nil
}
