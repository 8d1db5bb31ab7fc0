package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"

	"github.com/photostack/boardkit/cmd"
)

// version is set at release time with -ldflags "-X main.version=v1.2.3".
var version string

// buildVersion prefers the linker-stamped version, then the module version
// recorded by "go install", then "dev".
func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

func main() {
	if err := fang.Execute(
		context.Background(),
		cmd.NewRootCmd(),
		fang.WithVersion(buildVersion()),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
