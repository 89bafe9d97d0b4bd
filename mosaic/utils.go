package mosaic

import (
	"path/filepath"
)

const (
	Kilo = 1 << 10
	Mega = 1 << 20
	Giga = 1 << 30
	Tera = 1 << 40
)

// ConvertToAbsolute returns an absolute path for a possibly relative path,
// resolving it against the given directory rather than the working
// directory.  Config files use this so their path settings are relative to
// the file itself.
func ConvertToAbsolute(path, dir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return path, err
	}
	return filepath.Join(absDir, path), nil
}
