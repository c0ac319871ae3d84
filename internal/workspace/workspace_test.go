package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspaceLifecycle(t *testing.T) {
	parent := t.TempDir()
	ws, err := Create(parent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(ws.Root(), parent) {
		t.Fatalf("workspace %q not under parent %q", ws.Root(), parent)
	}
	if _, err := os.Stat(ws.Root()); err != nil {
		t.Fatalf("workspace directory missing: %v", err)
	}

	file := ws.NewFile("wav")
	if filepath.Dir(file) != ws.Root() {
		t.Fatalf("NewFile escaped workspace: %q", file)
	}
	if !strings.HasSuffix(file, ".wav") {
		t.Fatalf("extension not applied: %q", file)
	}
	if err := os.WriteFile(file, []byte("data"), 0o644); err != nil {
		t.Fatalf("write scratch file: %v", err)
	}

	root := ws.Root()
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("workspace not removed: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewFileUnique(t *testing.T) {
	ws, err := Create(t.TempDir())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer ws.Close()
	seen := make(map[string]struct{})
	for i := 0; i < 32; i++ {
		name := ws.NewFile(".srt")
		if _, dup := seen[name]; dup {
			t.Fatalf("duplicate scratch name %q", name)
		}
		seen[name] = struct{}{}
	}
}
