package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, dir string, manifest Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(root, dir)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()

	pluginDir := writeManifest(t, tmpDir, "speak", Manifest{
		Name:        "speak",
		Version:     "1.0.0",
		Description: "Reads translations aloud",
		Executable:  "speak",
		Events:      []string{EventResult},
		Config:      json.RawMessage(`{"voice":"default"}`),
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "speak" {
		t.Errorf("expected plugin name 'speak', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", plugin.Manifest.Version)
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if want := filepath.Join(pluginDir, "speak"); plugin.Executable != want {
		t.Errorf("expected executable %q, got %q", want, plugin.Executable)
	}
	if string(plugin.Manifest.Config) != `{"voice":"default"}` {
		t.Errorf("unexpected config %s", plugin.Manifest.Config)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	writeManifest(t, tmpDir, "good", Manifest{Name: "good", Executable: "run"})
	writeManifest(t, tmpDir, "no-name", Manifest{Executable: "run"})
	writeManifest(t, tmpDir, "no-exec", Manifest{Name: "no-exec"})

	broken := filepath.Join(tmpDir, "broken")
	os.MkdirAll(broken, 0755)
	os.WriteFile(filepath.Join(broken, "plugin.json"), []byte("{not json"), 0644)

	os.MkdirAll(filepath.Join(tmpDir, "empty"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "stray.txt"), []byte("x"), 0644)

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Fatalf("expected only 'good', got %d plugins", len(plugins))
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() on missing dir = %v, want nil", err)
	}
	if len(manager.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Discover_Replaces(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "a", Manifest{Name: "a", Executable: "run"})

	manager := NewManager(tmpDir)
	manager.Discover()

	os.RemoveAll(filepath.Join(tmpDir, "a"))
	writeManifest(t, tmpDir, "b", Manifest{Name: "b", Executable: "run"})
	manager.Discover()

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "b" {
		t.Errorf("List() after rediscovery = %d plugins", len(plugins))
	}
}

func TestManager_ListAndSubscribers(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "z", Manifest{Name: "zeta", Executable: "run", Events: []string{EventResult}})
	writeManifest(t, tmpDir, "a", Manifest{Name: "alpha", Executable: "run"})
	writeManifest(t, tmpDir, "m", Manifest{Name: "mu", Executable: "run", Events: []string{"other"}})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	var names []string
	for _, p := range manager.List() {
		names = append(names, p.Manifest.Name)
	}
	if len(names) != 3 || names[0] != "alpha" || names[1] != "mu" || names[2] != "zeta" {
		t.Errorf("List() order = %v", names)
	}

	subs := manager.Subscribers(EventResult)
	if len(subs) != 2 || subs[0].Manifest.Name != "alpha" || subs[1].Manifest.Name != "zeta" {
		t.Errorf("Subscribers(result) = %d plugins", len(subs))
	}
}

func TestPlugin_Handles(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		event  string
		want   bool
	}{
		{"no events means all", nil, EventResult, true},
		{"listed", []string{EventResult}, EventResult, true},
		{"not listed", []string{"other"}, EventResult, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plugin{Manifest: Manifest{Events: tt.events}}
			if got := p.Handles(tt.event); got != tt.want {
				t.Errorf("Handles(%q) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}
