package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
)

type bindingsFile struct {
	Bindings map[string]keyRecord `json:"bindings"`
}

type keyRecord struct {
	DownCommand string      `json:"down_command"`
	UpCommand   *string     `json:"up_command,omitempty"`
	Color       paletteCode `json:"color"`
}

// paletteCode is written as a decimal string. Older files written after a
// color pick may hold a bare number, so both are accepted.
type paletteCode int

func (c paletteCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(c)))
}

func (c *paletteCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("cannot parse color %q: %w", s, err)
		}
		*c = paletteCode(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cannot parse color: %s", string(data))
	}
	*c = paletteCode(n)
	return nil
}

// Store reads and writes bindings files.
type Store struct {
	fs afero.Fs
}

// NewStore returns a Store on fsys, or on the OS filesystem if fsys is nil.
func NewStore(fsys afero.Fs) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys}
}

// Load reads a bindings file. Malformed content is reported as ErrConfigParse.
func (st *Store) Load(path string) (map[Coord]*Key, error) {
	data, err := afero.ReadFile(st.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("bindings file %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading bindings: %w", err)
	}

	var f bindingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigParse, path, err)
	}

	keys := make(map[Coord]*Key, len(f.Bindings))
	for name, rec := range f.Bindings {
		c, err := ParseCoord(name)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrConfigParse, path, err)
		}
		keys[c] = NewKey(c, rec.DownCommand, rec.UpCommand, int(rec.Color))
	}
	return keys, nil
}

// Save writes keys to path using a temp file and rename so a crash never
// leaves a truncated bindings file behind.
func (st *Store) Save(path string, keys map[Coord]*Key) error {
	f := bindingsFile{Bindings: make(map[string]keyRecord, len(keys))}
	for c, k := range keys {
		rec := keyRecord{DownCommand: k.press, Color: paletteCode(k.color)}
		if up, ok := k.ReleaseCommand(); ok {
			rec.UpCommand = &up
		}
		f.Bindings[c.String()] = rec
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bindings: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := st.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating bindings dir: %w", err)
	}

	tmp, err := afero.TempFile(st.fs, dir, ".bindings-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			st.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := st.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming bindings file: %w", err)
	}
	committed = true
	return nil
}
