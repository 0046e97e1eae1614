package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petrelvm/petrel/vm"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a petrel.toml
	dir := t.TempDir()
	tomlContent := `
[runtime]
name = "test-runtime"
verbosity = 1

[watchers]
dict = 4
type = 2
`
	if err := os.WriteFile(filepath.Join(dir, "petrel.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Runtime.Name != "test-runtime" {
		t.Errorf("runtime name = %q, want test-runtime", m.Runtime.Name)
	}
	if m.Runtime.Verbosity != 1 {
		t.Errorf("verbosity = %d, want 1", m.Runtime.Verbosity)
	}
	if m.Watchers.Dict != 4 || m.Watchers.Type != 2 {
		t.Errorf("watchers = %+v, want dict=4 type=2", m.Watchers)
	}
	// Unset capacities fall back to the full mask width.
	if m.Watchers.Code != vm.MaxWatchers || m.Watchers.Func != vm.MaxWatchers {
		t.Errorf("watchers = %+v, want code/func defaulted to %d", m.Watchers, vm.MaxWatchers)
	}
	if m.Dir == "" {
		t.Error("Dir not set at load time")
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load of empty directory succeeded")
	}
}

func TestLoadManifestRejectsOversizedCapacity(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[watchers]
dict = 9
`
	if err := os.WriteFile(filepath.Join(dir, "petrel.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load accepted a capacity above the mask width")
	}
}

func TestDefaultManifest(t *testing.T) {
	m := Default()
	if err := m.Validate(); err != nil {
		t.Fatalf("default manifest invalid: %v", err)
	}

	limits := m.Limits()
	want := vm.DefaultLimits()
	if limits != want {
		t.Errorf("Limits = %+v, want %+v", limits, want)
	}
	if _, err := vm.NewRuntimeWithLimits(limits); err != nil {
		t.Errorf("default limits rejected by runtime: %v", err)
	}
}
