package cargo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the part of Cargo.toml the builder inspects.
type Manifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, fmt.Errorf("%w: %s", ErrNoManifest, path)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest load failed (%s): %w", path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest parse failed (%s): %w", path, err)
	}
	return m, nil
}

// UsesLegacyPros reports a project still depending on the pros crate instead
// of vexide.
func (m Manifest) UsesLegacyPros() bool {
	_, pros := m.Dependencies["pros"]
	_, vexide := m.Dependencies["vexide"]
	return pros && !vexide
}
