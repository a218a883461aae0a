// Package storage writes the per-run output layout:
//
//	outputs/<date>/<slug>/{base_img.png, <variant>.png,
//	                      candidates/candidate_NNN.png, meta.json}
package storage

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/sinhau/pixelbliss/internal/domain/model"
)

const slugMaxLen = 50

var (
	nonWordRe     = regexp.MustCompile(`[^\w\-]`)
	underscoresRe = regexp.MustCompile(`_+`)
)

// Scores captures the winner's metrics for meta.json. Absent on the
// human-override path, where nothing was scored.
type Scores struct {
	Brightness   float64 `json:"brightness"`
	Entropy      float64 `json:"entropy"`
	LocalQuality float64 `json:"localQuality"`
	Aesthetic    float64 `json:"aesthetic"`
	Final        float64 `json:"final"`
}

// Meta is the per-run provenance document saved next to the images.
type Meta struct {
	Theme         string            `json:"theme"`
	BasePrompt    string            `json:"basePrompt"`
	VariantPrompt string            `json:"variantPrompt"`
	Provider      string            `json:"provider"`
	Model         string            `json:"model"`
	Seed          int64             `json:"seed"`
	CreatedAt     string            `json:"createdAt"`
	AltText       string            `json:"altText"`
	Phash         string            `json:"phash,omitempty"`
	Scores        *Scores           `json:"scores,omitempty"`
	Files         map[string]string `json:"files"`
	PostID        string            `json:"postId,omitempty"`
}

// MakeSlug builds a filesystem-safe slug from the theme and base prompt,
// capped at 50 characters.
func MakeSlug(theme, basePrompt string) string {
	slug := nonWordRe.ReplaceAllString(theme+"_"+basePrompt, "_")
	slug = underscoresRe.ReplaceAllString(slug, "_")
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
	}
	return slug
}

// Writer persists run outputs under a root directory.
type Writer struct {
	root string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// RunDir returns the output directory for one run.
func (w *Writer) RunDir(date, slug string) string {
	return filepath.Join(w.root, date, slug)
}

// SaveImages writes each image as <name>.png under dir and returns the
// name -> path mapping.
func (w *Writer) SaveImages(dir string, images map[string]image.Image) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	// Deterministic write order keeps logs and tests stable.
	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make(map[string]string, len(images))
	for _, name := range names {
		path := filepath.Join(dir, name+".png")
		if err := writePNG(path, images[name]); err != nil {
			return nil, err
		}
		paths[name] = path
	}
	return paths, nil
}

// SaveCandidates archives every candidate image under dir/candidates for
// later inspection.
func (w *Writer) SaveCandidates(dir string, candidates []*model.Candidate) error {
	sub := filepath.Join(dir, "candidates")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return fmt.Errorf("create candidates dir: %w", err)
	}
	for i, c := range candidates {
		path := filepath.Join(sub, fmt.Sprintf("candidate_%03d.png", i+1))
		if err := writePNG(path, c.Image); err != nil {
			return err
		}
	}
	return nil
}

// SaveMeta writes meta.json under dir and returns its path.
func (w *Writer) SaveMeta(dir string, meta Meta) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	path := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write meta: %w", err)
	}
	return path, nil
}

// SaveRaw writes pre-encoded image bytes (e.g. a compressed upload copy).
func (w *Writer) SaveRaw(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
