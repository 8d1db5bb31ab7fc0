package scripts

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/photostack/boardkit/internal/errs"
)

const configFragment = `// #include "../lib/utils.jsx"
var CONFIG = {
  DATA_FILE_PATH: "",
  TARGET_DOC_NAME: ""
};
main();
`

func bundledFS() fstest.MapFS {
	return fstest.MapFS{
		"actions/plain.jsx":    {Data: []byte("var x = 1;\nalert(x);\n")},
		"actions/include.jsx":  {Data: []byte("var a = 1;\n// #include \"../lib/utils.jsx\"\nvar b = 2;\n")},
		"actions/missing.jsx":  {Data: []byte("//#include \"../lib/nope.jsx\"\n")},
		"actions/escape.jsx":   {Data: []byte("// #include \"../../secret.jsx\"\n")},
		"actions/nested.jsx":   {Data: []byte("// #include \"../lib/outer.jsx\"\n")},
		"actions/loop.jsx":     {Data: []byte("x;\n// #include \"loop.jsx\"\n")},
		"actions/config.jsx":   {Data: []byte(configFragment)},
		"actions/noconfig.jsx": {Data: []byte("main();\n")},
		"lib/utils.jsx":        {Data: []byte("function log(m) { $.writeln(m); }")},
		"lib/outer.jsx":        {Data: []byte("outer;\n// #include \"inner.jsx\"")},
		"lib/inner.jsx":        {Data: []byte("inner;")},
	}
}

func TestComposeRoundTripIdentity(t *testing.T) {
	c := &Composer{Bundled: bundledFS()}
	got, err := c.Compose("actions/plain.jsx", Overrides{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if got != "var x = 1;\nalert(x);\n" {
		t.Errorf("Expected unchanged fragment, got %q", got)
	}
}

func TestComposeIncludes(t *testing.T) {
	c := &Composer{Bundled: bundledFS()}
	tests := []struct {
		name     string
		fragment string
		expected string
	}{
		{
			name:     "inline include equals manual concatenation",
			fragment: "actions/include.jsx",
			expected: "var a = 1;\nfunction log(m) { $.writeln(m); }\nvar b = 2;\n",
		},
		{
			name:     "nested include resolves relative to includer",
			fragment: "actions/nested.jsx",
			expected: "outer;\ninner;\n",
		},
		{
			name:     "missing include becomes marker",
			fragment: "actions/missing.jsx",
			expected: "// ERROR: include not available: ../lib/nope.jsx\n",
		},
		{
			name:     "include outside root becomes marker",
			fragment: "actions/escape.jsx",
			expected: "// ERROR: include not available: ../../secret.jsx\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Compose(tt.fragment, Overrides{})
			if err != nil {
				t.Fatalf("Compose returned error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestComposeIncludeDepthLimit(t *testing.T) {
	c := &Composer{Bundled: bundledFS()}
	got, err := c.Compose("actions/loop.jsx", Overrides{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if n := strings.Count(got, "x;"); n != MaxIncludeDepth+1 {
		t.Errorf("Expected %d expansions, got %d", MaxIncludeDepth+1, n)
	}
	if !strings.Contains(got, `#include "loop.jsx"`) {
		t.Errorf("Expected the deepest directive to be left in place")
	}
}

func TestComposeInjectsOverrides(t *testing.T) {
	c := &Composer{Bundled: bundledFS()}
	got, err := c.Compose("actions/config.jsx", Overrides{
		DataFile:       `C:\tmp\moves "1".json`,
		TargetDocument: "Tabló 2026",
		BoardFile:      `/Users/op/boards/12a.psd`,
		Extra: map[string]string{
			"MODE":      "apply",
			"bad-key":   "ignored",
			"ALIGN_ALL": "it's",
		},
	})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	expected := "function log(m) { $.writeln(m); }\n" +
		"var CONFIG = {\n  DATA_FILE_PATH: \"\",\n  TARGET_DOC_NAME: \"\"\n};\n" +
		"CONFIG.DATA_FILE_PATH = \"C:/tmp/moves \\\"1\\\".json\";\n" +
		"CONFIG.TARGET_DOC_NAME = \"Tabló 2026\";\n" +
		"CONFIG.PSD_FILE_PATH = \"/Users/op/boards/12a.psd\";\n" +
		"CONFIG.ALIGN_ALL = \"it\\'s\";\n" +
		"CONFIG.MODE = \"apply\";\n" +
		"\nmain();\n"
	if got != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestComposeWithoutConfigBlock(t *testing.T) {
	c := &Composer{Bundled: bundledFS()}
	got, err := c.Compose("actions/noconfig.jsx", Overrides{DataFile: "/tmp/a.json"})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if got != "main();\n" {
		t.Errorf("Expected content untouched, got %q", got)
	}
}

func TestResolvePrefersWorkingCopy(t *testing.T) {
	working := fstest.MapFS{
		"actions/plain.jsx": {Data: []byte("edited")},
	}
	c := &Composer{Working: working, Bundled: bundledFS()}

	got, err := c.Compose("actions/plain.jsx", Overrides{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if got != "edited" {
		t.Errorf("Expected working copy content, got %q", got)
	}

	got, err = c.Compose("lib/inner.jsx", Overrides{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if got != "inner;" {
		t.Errorf("Expected bundled fallback, got %q", got)
	}
}

func TestResolveErrors(t *testing.T) {
	c := &Composer{Bundled: bundledFS()}
	tests := []struct {
		name string
		kind errs.Kind
	}{
		{"actions/unknown.jsx", errs.NotFound},
		{"", errs.Invalid},
		{"../etc/passwd", errs.Invalid},
		{"/abs/path.jsx", errs.Invalid},
		{strings.Repeat("a", 201), errs.Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Resolve(tt.name)
			if !errs.Is(err, tt.kind) {
				t.Errorf("Expected %s error, got %v", tt.kind, err)
			}
		})
	}
}

func TestEscaping(t *testing.T) {
	in := "a\\b\"c'd\ne\rf\tg\x00h"
	if got, want := JSXString(in), `a\\b\"c\'d\ne\rf`+"\tg"+"h"; got != want {
		t.Errorf("JSXString: expected %q, got %q", want, got)
	}
	if got, want := AppleScriptString(in), `a\\b\"c'd\ne\rf\tgh`; got != want {
		t.Errorf("AppleScriptString: expected %q, got %q", want, got)
	}
	if got := JSXPath(`C:\Users\op`); got != "C:/Users/op" {
		t.Errorf("JSXPath: expected forward slashes, got %q", got)
	}
}
