package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BOARDKIT_TEMPLATES_DIR", filepath.Join(t.TempDir(), "templates"))
	t.Setenv("BOARDKIT_TEMP_DIR", filepath.Join(t.TempDir(), "tmp"))
	t.Setenv("BOARDKIT_SETTINGS", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("BOARDKIT_FRAGMENTS_DIR", "")
	t.Setenv("BOARDKIT_WORK_DIR", "")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNamesCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"slug with id", []string{"names", "slug", "Kovács Éva Anna", "--id", "12"}, "kovacs-eva-anna---12\n"},
		{"slug without id", []string{"names", "slug", "Kovács Éva"}, "kovacs-eva\n"},
		{"break", []string{"names", "break", "Kovács Éva Anna"}, "Kovács\nÉva Anna\n"},
		{"break after two", []string{"names", "break", "Kovács Éva Anna", "--after", "2"}, "Kovács Éva\nAnna\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestScriptComposeCommand(t *testing.T) {
	out, err := execute(t, "script", "compose", "actions/add-names.jsx", "--data", "/tmp/names.json", "--set", "FONT_SIZE=18")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if strings.Contains(out, "#include") {
		t.Errorf("Expected includes to be expanded")
	}
	for _, want := range []string{`CONFIG.DATA_FILE_PATH = "/tmp/names.json";`, `CONFIG.FONT_SIZE = "18";`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected composed script to contain %s", want)
		}
	}

	if _, err := execute(t, "script", "compose", "actions/add-names.jsx", "--set", "broken"); err == nil {
		t.Errorf("Expected error for malformed --set")
	}
}

func TestTemplateListEmpty(t *testing.T) {
	out, err := execute(t, "template", "list")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(out, "No templates saved yet") {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestRosterNamesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class.json")
	data := `[{"id":7,"name":"Kiss Péter","type":"student"},{"id":3,"name":"Nagy Éva","type":"teacher"}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "roster", "names", path, "--align", "left")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	for _, want := range []string{`"layerName": "kiss-peter---7"`, `"group": "Teachers"`, `"textAlign": "left"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %s, got %s", want, out)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "NAME"}, [][]string{{"tmpl-1", "Spring"}, {"tmpl-22", "Autumn board"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[2], "tmpl-22") || !strings.Contains(lines[2], "Autumn board") {
		t.Errorf("Unexpected row %q", lines[2])
	}
}
