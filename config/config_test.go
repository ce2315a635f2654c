package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreUsable(t *testing.T) {
	c := Defaults()
	if c.VM.Limit == 0 {
		t.Errorf("Defaults().VM.Limit = 0, want nonzero")
	}
	if c.Compiler.DefaultExpr == "" {
		t.Errorf("Defaults().Compiler.DefaultExpr is empty")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	toml := `
[vm]
limit = 100
trace = true

[compiler]
default_expr = "1+1"
newline_separated = true
`
	if err := os.WriteFile(filepath.Join(dir, "gasm.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.VM.Limit != 100 || !c.VM.Trace {
		t.Errorf("c.VM = %+v, want Limit=100 Trace=true", c.VM)
	}
	if c.Compiler.DefaultExpr != "1+1" || !c.Compiler.NewlineSeparated {
		t.Errorf("c.Compiler = %+v", c.Compiler)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	toml := "[vm]\ntrace = true\n"
	if err := os.WriteFile(filepath.Join(dir, "gasm.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.VM.Limit != Defaults().VM.Limit {
		t.Errorf("partial file clobbered default limit: got %d", c.VM.Limit)
	}
	if !c.VM.Trace {
		t.Errorf("c.VM.Trace = false, want true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Errorf("expected error loading missing gasm.toml")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	toml := "[vm]\nlimit = 7\n"
	if err := os.WriteFile(filepath.Join(root, "gasm.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if c.VM.Limit != 7 {
		t.Errorf("c.VM.Limit = %d, want 7", c.VM.Limit)
	}
}

func TestFindAndLoadFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if c.VM.Limit != Defaults().VM.Limit {
		t.Errorf("expected defaults when no gasm.toml is found")
	}
}
