package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/nlx/manifest"
)

func TestManifestStartDir(t *testing.T) {
	tests := []struct {
		script string
		want   string
	}{
		{"", "."},
		{"main.nlx", "."},
		{filepath.Join("sub", "dir", "main.nlx"), filepath.Join("sub", "dir")},
		{filepath.Join(string(filepath.Separator), "abs", "main.nlx"), filepath.Join(string(filepath.Separator), "abs")},
	}

	for _, tc := range tests {
		if got := manifestStartDir(tc.script); got != tc.want {
			t.Errorf("manifestStartDir(%q) = %q, want %q", tc.script, got, tc.want)
		}
	}
}

func TestManifestFoundNextToScript(t *testing.T) {
	// A script in a nested project directory picks up that project's
	// manifest even when run from elsewhere.
	root := t.TempDir()
	proj := filepath.Join(root, "sub", "dir")
	if err := os.MkdirAll(proj, 0755); err != nil {
		t.Fatal(err)
	}
	toml := "[project]\nname = \"nested\"\n\n[debug]\ntrace = true\n"
	if err := os.WriteFile(filepath.Join(proj, "nlx.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(proj, "main.nlx")

	m, err := manifest.FindAndLoad(manifestStartDir(script))
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("manifest next to the script was not found")
	}
	if m.Project.Name != "nested" || !m.Debug.Trace {
		t.Errorf("loaded wrong manifest: %+v", m)
	}
}
