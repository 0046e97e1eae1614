// Package manifest handles petrel.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/petrelvm/petrel/vm"
)

// Manifest represents a petrel.toml runtime configuration.
type Manifest struct {
	Runtime  Runtime  `toml:"runtime"`
	Watchers Watchers `toml:"watchers"`

	// Dir is the directory containing the petrel.toml file (set at load time).
	Dir string `toml:"-"`
}

// Runtime contains runtime metadata.
type Runtime struct {
	Name      string `toml:"name"`
	Verbosity int    `toml:"verbosity"`
}

// Watchers configures per-kind watcher capacity. Zero means the default of
// 8 slots; capacities are independent across kinds.
type Watchers struct {
	Dict int `toml:"dict"`
	Type int `toml:"type"`
	Code int `toml:"code"`
	Func int `toml:"func"`
}

// Default returns a manifest with every watcher table at full capacity.
func Default() *Manifest {
	return &Manifest{
		Runtime: Runtime{Name: "petrel"},
		Watchers: Watchers{
			Dict: vm.MaxWatchers,
			Type: vm.MaxWatchers,
			Code: vm.MaxWatchers,
			Func: vm.MaxWatchers,
		},
	}
}

// Load parses a petrel.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "petrel.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Runtime.Name == "" {
		m.Runtime.Name = "petrel"
	}
	defaults := Default().Watchers
	if m.Watchers.Dict == 0 {
		m.Watchers.Dict = defaults.Dict
	}
	if m.Watchers.Type == 0 {
		m.Watchers.Type = defaults.Type
	}
	if m.Watchers.Code == 0 {
		m.Watchers.Code = defaults.Code
	}
	if m.Watchers.Func == 0 {
		m.Watchers.Func = defaults.Func
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks watcher capacities against the mask width.
func (m *Manifest) Validate() error {
	check := func(kind string, n int) error {
		if n < 1 || n > vm.MaxWatchers {
			return fmt.Errorf("%s watcher capacity %d outside [1, %d]", kind, n, vm.MaxWatchers)
		}
		return nil
	}
	if err := check("dict", m.Watchers.Dict); err != nil {
		return err
	}
	if err := check("type", m.Watchers.Type); err != nil {
		return err
	}
	if err := check("code", m.Watchers.Code); err != nil {
		return err
	}
	return check("func", m.Watchers.Func)
}

// Limits maps the manifest onto runtime watcher limits.
func (m *Manifest) Limits() vm.Limits {
	return vm.Limits{
		DictWatchers: m.Watchers.Dict,
		TypeWatchers: m.Watchers.Type,
		CodeWatchers: m.Watchers.Code,
		FuncWatchers: m.Watchers.Func,
	}
}
