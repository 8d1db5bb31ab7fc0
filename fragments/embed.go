// Package fragments holds the automation script fragments shipped with boardkit.
package fragments

import (
	"embed"
	"os"
	"time"
)

// FS contains actions/ and lib/. Paths are relative to this directory.
//
//go:embed actions lib
var FS embed.FS

// Fragment names used by the layout engine and the roster commands.
const (
	ReadLayout    = "actions/read-layout.jsx"
	ApplyTemplate = "actions/apply-template.jsx"
	AddNames      = "actions/add-names.jsx"
	PlacePhotos   = "actions/place-photos.jsx"
)

// ModTime is the release time of the bundled fragments: the modification
// time of the running executable. It is zero when that cannot be determined.
func ModTime() time.Time {
	exe, err := os.Executable()
	if err != nil {
		return time.Time{}
	}
	info, err := os.Stat(exe)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
