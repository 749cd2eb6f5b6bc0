package upload

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Storage saves uploaded files on local disk. Photos get a unique-suffix
// filename; the timetable lives under a fixed name so a new upload
// replaces the old one.
type Storage struct {
	dir string
}

// New ensures the upload directory exists.
func New(dir string) (*Storage, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// SavePhoto writes the file under "<unixnano>-<rand>-<originalName>" and
// returns the stored filename.
func (s *Storage) SavePhoto(r io.Reader, originalName string) (string, error) {
	name := fmt.Sprintf("%d-%d-%s", time.Now().UnixNano(), rand.Intn(1_000_000_000), filepath.Base(originalName))
	if err := s.write(name, r); err != nil {
		return "", err
	}
	return name, nil
}

// SaveTimetable stores the file as "timetable<ext>", replacing any
// previous timetable regardless of extension.
func (s *Storage) SaveTimetable(r io.Reader, originalName string) (string, error) {
	old, _ := filepath.Glob(filepath.Join(s.dir, "timetable.*"))
	for _, path := range old {
		_ = os.Remove(path)
	}
	name := "timetable" + filepath.Ext(originalName)
	if err := s.write(name, r); err != nil {
		return "", err
	}
	return name, nil
}

// TimetablePath returns the absolute path of the current timetable, or an
// error if none was uploaded yet.
func (s *Storage) TimetablePath() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "timetable.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", os.ErrNotExist
	}
	return matches[0], nil
}

// Path resolves a stored filename inside the upload directory.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *Storage) write(name string, r io.Reader) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}
