package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/dgoffredo/tisch/unit"
)

// Extensions are the document file extensions tried, in order.
var Extensions = []string{".yaml", ".yml", ".json"}

// FSSource serves units from the documents in a file system. The unit "a/b"
// is read from a/b.yaml, a/b.yml or a/b.json.
type FSSource struct {
	fsys fs.FS
}

// FS returns a Source over fsys.
func FS(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Dir returns a Source over the directory dir.
func Dir(dir string) *FSSource {
	return FS(os.DirFS(dir))
}

// Load reads and parses the document for id.
func (s *FSSource) Load(id string) (*unit.Unit, error) {
	for _, ext := range Extensions {
		name := id + ext
		if !fs.ValidPath(name) {
			return nil, fmt.Errorf("%w: invalid unit ID %q", unit.ErrNotFound, id)
		}
		data, err := fs.ReadFile(s.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return parseAs(id, name, data)
	}
	return nil, fmt.Errorf("%w: no %s document", unit.ErrNotFound, id+"{"+strings.Join(Extensions, ",")+"}")
}

// List returns the IDs of every document in the file system, sorted.
func (s *FSSource) List() ([]string, error) {
	var ids []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if slices.Contains(Extensions, ext) {
			ids = append(ids, strings.TrimSuffix(p, ext))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Memory serves units from documents held in memory, keyed by unit ID.
type Memory map[string][]byte

// Load parses the document for id.
func (m Memory) Load(id string) (*unit.Unit, error) {
	data, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", unit.ErrNotFound, id)
	}
	return parseAs(id, id, data)
}

// parseAs parses a document that must describe the unit id.
func parseAs(id, name string, data []byte) (*unit.Unit, error) {
	u, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	if u.ID != name && u.ID != id {
		return nil, &ParseError{Source: name, Path: "id", Reason: fmt.Sprintf("document declares id %q but was loaded as %q", u.ID, id)}
	}
	u.ID = id
	return u, nil
}
