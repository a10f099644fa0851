// Package files reads the bundled static content from an fs.FS. Each record
// may be authored as JSON or YAML; JSON wins when both exist.
package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"hostel_guide/internal/domain"
)

var extensions = []string{".json", ".yaml", ".yml"}

type Source struct {
	fsys  fs.FS
	spots map[domain.Category]string
}

func New(fsys fs.FS) *Source {
	spots := make(map[domain.Category]string, len(domain.Categories))
	for _, c := range domain.Categories {
		spots[c] = path.Join("spots", string(c))
	}
	return &Source{fsys: fsys, spots: spots}
}

func (s *Source) LoadSettings(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	if err := s.decode(ctx, "settings", &out); err != nil {
		return domain.Settings{}, err
	}
	return out, nil
}

func (s *Source) LoadSpots(ctx context.Context, c domain.Category) ([]domain.Spot, error) {
	base, ok := s.spots[c]
	if !ok {
		return nil, &domain.InvalidCategoryError{Value: string(c)}
	}
	var f domain.SpotsFile
	if err := s.decode(ctx, base, &f); err != nil {
		return nil, err
	}
	if f.Spots == nil {
		return nil, &domain.ContentLoadError{Source: base, Err: errors.New(`missing "spots" list`)}
	}
	return f.Spots, nil
}

func (s *Source) LoadEvents(ctx context.Context) ([]domain.HostelEvent, error) {
	var f domain.EventsFile
	if err := s.decode(ctx, "events", &f); err != nil {
		return nil, err
	}
	if f.Events == nil {
		return nil, &domain.ContentLoadError{Source: "events", Err: errors.New(`missing "events" list`)}
	}
	return f.Events, nil
}

// decode finds base.<ext> and unmarshals it into dst.
func (s *Source) decode(ctx context.Context, base string, dst any) error {
	if err := ctx.Err(); err != nil {
		return &domain.ContentLoadError{Source: base, Err: err}
	}
	for _, ext := range extensions {
		name := base + ext
		b, err := fs.ReadFile(s.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return &domain.ContentLoadError{Source: name, Err: err}
		}
		if err := unmarshal(ext, b, dst); err != nil {
			return &domain.ContentLoadError{Source: name, Err: err}
		}
		log.Debug().Str("file", name).Int("bytes", len(b)).Msg("content file decoded")
		return nil
	}
	return &domain.ContentLoadError{Source: base, Err: fmt.Errorf("no %s file: %w", base, fs.ErrNotExist)}
}

func unmarshal(ext string, b []byte, dst any) error {
	if ext == ".json" {
		return json.Unmarshal(b, dst)
	}
	return yaml.Unmarshal(b, dst)
}
