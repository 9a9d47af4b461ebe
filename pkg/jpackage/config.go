package jpackage

import (
	"fmt"
	"path/filepath"

	"github.com/bundlesmith/bundlesmith/pkg/validate"
)

// Config holds the platform-independent jpackage inputs. It is a value type:
// build it once with NewConfig and pass copies; nothing mutates it afterwards.
type Config struct {
	Name         string   // --name, also the base of every produced file name
	Version      string   // --app-version
	Module       string   // application module name
	MainModule   string   // --module, "module" or "module/main.Class"
	Icon         string   // --icon, optional
	ResourceDir  string   // --resource-dir, optional
	ModulePath   []string // --module-path entries
	RuntimeImage string   // --runtime-image, the jlink output
	Dest         string   // --dest
}

// NewConfig validates c and returns it with its module path copied, so later
// changes to the caller's slice cannot leak into a running packager.
func NewConfig(c Config) (Config, error) {
	checks := []struct{ value, field string }{
		{c.Name, "name"},
		{c.Version, "version"},
		{c.Module, "module"},
		{c.MainModule, "main module"},
		{c.Dest, "destination"},
		{c.RuntimeImage, "runtime image"},
	}
	for _, chk := range checks {
		if err := validate.RequiredString(chk.value, chk.field); err != nil {
			return Config{}, fmt.Errorf("invalid packaging config: %w", err)
		}
	}
	if err := validate.RequiredSlice(c.ModulePath, "module path"); err != nil {
		return Config{}, fmt.Errorf("invalid packaging config: %w", err)
	}
	if !filepath.IsLocal(c.Name) {
		return Config{}, fmt.Errorf("invalid packaging config: name %q must not contain path separators", c.Name)
	}

	c.ModulePath = append([]string(nil), c.ModulePath...)
	return c, nil
}

// AppImageDir is where jpackage writes an app image: <dest>/<name>.
func (c Config) AppImageDir() string {
	return filepath.Join(c.Dest, c.Name)
}

// ArtifactPath is the conventional file jpackage produces next to the app
// image: <dest>/<name>-<version>.<ext>.
func (c Config) ArtifactPath(ext string) string {
	return filepath.Join(c.Dest, fmt.Sprintf("%s-%s.%s", c.Name, c.Version, ext))
}
