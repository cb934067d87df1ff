// Package bundle parses curated narrative export bundles. A bundle is a
// directory (or S3 prefix) of YAML files written by the curation tool:
// a manifest, the series hierarchy, flat entity lists, one event file per
// episode, and the connection list.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/plotweave/backend/pkg/narrative"
)

// Well-known file names inside a bundle.
const (
	ManifestFile      = "manifest.yaml"
	SeriesFile        = "series.yaml"
	ThemesFile        = "themes.yaml"
	ArcsFile          = "arcs.yaml"
	LocationsFile     = "locations.yaml"
	CharactersFile    = "characters.yaml"
	OrganizationsFile = "organizations.yaml"
	ObjectsFile       = "objects.yaml"
	ConnectionsFile   = "connections.yaml"
)

// Manifest describes the export and carries the expected record counts.
// Counts are a post-import sanity check, never a source of truth.
type Manifest struct {
	ExporterVersion string `yaml:"exporter_version"`
	ExportDate      string `yaml:"export_date"`
	SourceGraph     string `yaml:"source_graph"`
	SeriesTitle     string `yaml:"series_title" validate:"required"`
	SeasonCount     int    `yaml:"season_count"`
	EpisodeCount    int    `yaml:"episode_count"`
	EventCount      int    `yaml:"event_count"`
	CharacterCount  int    `yaml:"character_count"`
	ConnectionCount int    `yaml:"connection_count"`
	Notes           string `yaml:"notes"`
}

// EventsFile is one per-episode event file under events/.
type EventsFile struct {
	Name        string            `yaml:"-"`
	EpisodeUUID string            `yaml:"episode_uuid"`
	Events      []narrative.Event `yaml:"events"`
}

// Bundle is a fully parsed export bundle. Record lists are deduplicated by
// curation UUID with the first occurrence winning; exports can contain
// repeated records from denormalized joins.
type Bundle struct {
	Manifest      Manifest
	Series        narrative.Series
	Themes        []narrative.Theme
	Arcs          []narrative.ConflictArc
	Locations     []narrative.Location
	Organizations []narrative.Organization
	Objects       []narrative.Object
	Characters    []narrative.Character
	EventFiles    []EventsFile
	Connections   []narrative.Connection
}

// Load reads and parses a complete bundle. Every error it returns is
// structural: a required file is missing, a file does not parse, or the
// manifest is invalid. Record-level problems (broken references, bad enum
// values) are not Load's concern; the importer handles those per record.
func Load(ctx context.Context, loader BundleLoader) (*Bundle, error) {
	b := &Bundle{}

	manifestData, err := loader.ReadFile(ctx, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ManifestFile, err)
	}
	if err := yaml.Unmarshal(manifestData, &b.Manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	if err := validator.New().Struct(b.Manifest); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestFile, err)
	}

	seriesData, err := loader.ReadFile(ctx, SeriesFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SeriesFile, err)
	}
	if err := decodeWrapped(seriesData, "series", &b.Series); err != nil {
		return nil, fmt.Errorf("parse %s: %w", SeriesFile, err)
	}

	if b.Themes, err = loadList[narrative.Theme](ctx, loader, ThemesFile, "themes", true); err != nil {
		return nil, err
	}
	if b.Arcs, err = loadList[narrative.ConflictArc](ctx, loader, ArcsFile, "arcs", true); err != nil {
		return nil, err
	}
	if b.Locations, err = loadList[narrative.Location](ctx, loader, LocationsFile, "locations", true); err != nil {
		return nil, err
	}
	if b.Organizations, err = loadList[narrative.Organization](ctx, loader, OrganizationsFile, "organizations", false); err != nil {
		return nil, err
	}
	if b.Objects, err = loadList[narrative.Object](ctx, loader, ObjectsFile, "objects", false); err != nil {
		return nil, err
	}
	if b.Characters, err = loadList[narrative.Character](ctx, loader, CharactersFile, "characters", true); err != nil {
		return nil, err
	}
	if b.Connections, err = loadList[narrative.Connection](ctx, loader, ConnectionsFile, "connections", true); err != nil {
		return nil, err
	}

	b.Themes = dedupeFirst(b.Themes, func(t narrative.Theme) string { return t.UUID })
	b.Arcs = dedupeFirst(b.Arcs, func(a narrative.ConflictArc) string { return a.UUID })
	b.Locations = dedupeFirst(b.Locations, func(l narrative.Location) string { return l.UUID })
	b.Organizations = dedupeFirst(b.Organizations, func(o narrative.Organization) string { return o.UUID })
	b.Objects = dedupeFirst(b.Objects, func(o narrative.Object) string { return o.UUID })
	b.Characters = dedupeFirst(b.Characters, func(c narrative.Character) string { return c.UUID })
	b.Connections = dedupeFirst(b.Connections, func(c narrative.Connection) string { return c.UUID })

	eventNames, err := loader.ListEventFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list event files: %w", err)
	}

	b.EventFiles = make([]EventsFile, len(eventNames))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range eventNames {
		g.Go(func() error {
			data, err := loader.ReadFile(gctx, name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			var ef EventsFile
			if err := yaml.Unmarshal(data, &ef); err != nil {
				return fmt.Errorf("parse %s: %w", name, err)
			}
			ef.Name = name
			ef.Events = dedupeFirst(ef.Events, func(e narrative.Event) string { return e.UUID })
			b.EventFiles[i] = ef
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return b, nil
}

// loadList reads one of the flat record list files. Lists may be written
// bare or wrapped in a single-key mapping ("themes: [...]"). Optional files
// may be absent entirely.
func loadList[T any](ctx context.Context, loader BundleLoader, file string, key string, required bool) ([]T, error) {
	data, err := loader.ReadFile(ctx, file)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	list, err := decodeList[T](data, key)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return list, nil
}

func decodeList[T any](data []byte, key string) ([]T, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	target := root
	if root.Kind == yaml.MappingNode {
		target = nil
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == key {
				target = root.Content[i+1]
				break
			}
		}
		if target == nil {
			return nil, fmt.Errorf("expected a list or a %q mapping", key)
		}
	}
	if target.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list under %q", key)
	}

	var list []T
	if err := target.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// decodeWrapped decodes a single record that may be written bare or wrapped
// under the given key.
func decodeWrapped(data []byte, key string, out any) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("empty document")
	}

	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == key {
				return root.Content[i+1].Decode(out)
			}
		}
	}
	return root.Decode(out)
}

// dedupeFirst drops records whose key was already seen, keeping the first
// occurrence. Records with an empty key are kept as-is; the importer
// rejects them individually.
func dedupeFirst[T any](list []T, keyOf func(T) string) []T {
	seen := make(map[string]struct{}, len(list))
	out := list[:0:0]
	for _, item := range list {
		key := keyOf(item)
		if key != "" {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}
