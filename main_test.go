package main

import "testing"

func TestBuildVersion(t *testing.T) {
	saved := version
	t.Cleanup(func() { version = saved })

	version = "v1.2.3"
	if got := buildVersion(); got != "v1.2.3" {
		t.Errorf("Expected stamped version v1.2.3, got %s", got)
	}

	version = ""
	if got := buildVersion(); got == "" {
		t.Errorf("Expected a fallback version, got an empty string")
	}
}
