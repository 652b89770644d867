// Package study keeps the manifest of artifacts an analysis run writes into
// its output directory.
package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"github.com/google/uuid"
)

const manifestFileName = "manifest.json"

// Artifact kinds, derived from the file extension.
const (
	KindCSV   = "csv"
	KindPNG   = "png"
	KindPDF   = "pdf"
	KindText  = "txt"
	KindDot   = "dot"
	KindXLSX  = "xlsx"
	KindDB    = "sqlite"
	KindOther = "other"
)

// Study is the manifest of an output directory.
type Study struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Artifacts   map[string]*Artifact `json:"artifacts"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	// Not serialized: directory holding manifest.json and the artifacts.
	rootDir string `json:"-"`
}

// New constructs an empty manifest. Call Save() to persist.
func New(name, description, rootDir string) *Study {
	now := time.Now()
	return &Study{
		Name:        name,
		Description: description,
		Artifacts:   make(map[string]*Artifact),
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Load reads manifest.json from dir.
func Load(dir string) (*Study, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]*Artifact)
	}
	s.rootDir = dir
	return &s, nil
}

// Open loads the manifest in dir or starts a new one named after the directory.
func Open(dir string) (*Study, error) {
	s, err := Load(dir)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return New(filepath.Base(dir), "", dir), nil
	}
	return nil, err
}

// RootDir returns the output directory.
func (s *Study) RootDir() string { return s.rootDir }

// Path resolves an artifact file name inside the output directory.
func (s *Study) Path(name string) string { return filepath.Join(s.rootDir, name) }

// Save writes manifest.json atomically.
func (s *Study) Save() error {
	if s.rootDir == "" {
		return errors.New("study output directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, manifestFileName), data)
}

// Record registers a written file. Re-recording the same path keeps its ID
// and refreshes the rest.
func (s *Study) Record(path, command, description string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	rel := path
	if r, err := filepath.Rel(s.rootDir, path); err == nil && !strings.HasPrefix(r, "..") {
		rel = r
	}
	rel = filepath.ToSlash(rel)
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]*Artifact)
	}
	a := s.find(rel)
	if a == nil {
		a = &Artifact{ID: uuid.NewString(), Path: rel}
		s.Artifacts[a.ID] = a
	}
	a.Name = filepath.Base(path)
	a.Kind = KindOf(path)
	a.Command = command
	a.Description = description
	a.Size = info.Size()
	a.CreatedAt = info.ModTime()
	s.UpdatedAt = time.Now()
	return a, nil
}

func (s *Study) find(rel string) *Artifact {
	for _, a := range s.Artifacts {
		if a.Path == rel {
			return a
		}
	}
	return nil
}

// List returns artifacts of the given kind (all when kind is empty), ordered
// by path.
func (s *Study) List(kind string) []*Artifact {
	out := make([]*Artifact, 0, len(s.Artifacts))
	for _, a := range s.Artifacts {
		if kind == "" || a.Kind == kind {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Abs returns the artifact's absolute location.
func (s *Study) Abs(a *Artifact) string {
	if filepath.IsAbs(a.Path) {
		return a.Path
	}
	return filepath.Join(s.rootDir, filepath.FromSlash(a.Path))
}

// KindOf maps a file extension to an artifact kind.
func KindOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return KindCSV
	case ".png":
		return KindPNG
	case ".pdf":
		return KindPDF
	case ".txt":
		return KindText
	case ".dot":
		return KindDot
	case ".xlsx":
		return KindXLSX
	case ".sqlite", ".db":
		return KindDB
	default:
		return KindOther
	}
}
