// Package content provides the shipped roster and wall maps, and loads them
// from either the embedded copy or a directory on disk.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
)

// contentFS embeds the default roster and every wall map at build time.
//
//go:embed roster.yaml walls/*.txt
var contentFS embed.FS

const (
	rosterFile = "roster.yaml"
	wallsDir   = "walls"
	wallExt    = ".txt"
)

// FS returns the embedded content.
func FS() fs.FS {
	return contentFS
}

// Open returns the content tree rooted at dir, or the embedded content when dir is empty.
//
// Postcondition: the returned filesystem holds roster.yaml and walls/<name>.txt.
func Open(dir string) fs.FS {
	if dir == "" {
		return contentFS
	}
	return os.DirFS(dir)
}

// LoadRoster reads and decodes roster.yaml from fsys.
//
// Precondition: fsys must be non-nil.
// Postcondition: Returns a Definition or a non-nil error.
func LoadRoster(fsys fs.FS) (*roster.Definition, error) {
	f, err := fsys.Open(rosterFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", rosterFile, err)
	}
	defer f.Close()
	return roster.Decode(f)
}

// LoadWallMap parses walls/<name>.txt from fsys.
//
// Precondition: name must be one of WallMaps(fsys).
// Postcondition: Returns a Grid or an error; malformed maps wrap hexgrid.ErrMalformedWallGrid.
func LoadWallMap(fsys fs.FS, name string, geom hexgrid.Geometry) (*hexgrid.Grid, error) {
	p := path.Join(wallsDir, name+wallExt)
	f, err := fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening wall map %q: %w", name, err)
	}
	defer f.Close()
	grid, err := hexgrid.ParseWallMap(f, geom)
	if err != nil {
		return nil, fmt.Errorf("wall map %q: %w", name, err)
	}
	return grid, nil
}

// WallMaps lists the wall map names available in fsys, sorted.
func WallMaps(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, wallsDir)
	if err != nil {
		return nil, fmt.Errorf("reading wall maps: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), wallExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), wallExt))
	}
	sort.Strings(names)
	return names, nil
}
