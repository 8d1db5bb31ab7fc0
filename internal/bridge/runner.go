// Package bridge runs composed scripts inside the document editor through
// the macOS automation bridge (osascript).
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/photostack/boardkit/internal/errs"
	"github.com/photostack/boardkit/internal/scripts"
)

const (
	// DefaultTimeout bounds a single editor invocation.
	DefaultTimeout = 60 * time.Second

	// DefaultBundleID addresses the editor independent of its window title or version.
	DefaultBundleID = "com.adobe.Photoshop"

	// ScriptErrorMarker prefixes errors reported by the fragments themselves.
	ScriptErrorMarker = "[JSX] ERROR:"

	supportedPlatform = "darwin"
)

// Line is one line of output observed while a script runs.
type Line struct {
	Stream string // "stdout" or "stderr"
	Text   string
}

// RunOptions control a single invocation.
type RunOptions struct {
	Streaming bool
	// Observer receives output lines as they arrive when Streaming is set.
	Observer func(Line)
	// Timeout overrides the runner's timeout when positive.
	Timeout time.Duration
	// DataFiles are removed together with the script file when the run ends.
	DataFiles []string
}

// RunResult is the outcome of a successful invocation.
type RunResult struct {
	Output   string
	Stderr   string
	Duration time.Duration
}

// Runner invokes the editor. The zero value is not usable; see NewRunner.
type Runner struct {
	Command  string
	BundleID string
	// HostApp is the name of the application driving the editor. Focus is
	// not handed back to it after a run.
	HostApp  string
	TempDir  string
	Platform string
	Timeout  time.Duration
}

// NewRunner creates a runner for the editor identified by bundleID.
func NewRunner(bundleID, hostApp, tempDir string, timeout time.Duration) *Runner {
	if bundleID == "" {
		bundleID = DefaultBundleID
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		Command:  "osascript",
		BundleID: bundleID,
		HostApp:  hostApp,
		TempDir:  tempDir,
		Platform: runtime.GOOS,
		Timeout:  timeout,
	}
}

// Supported reports whether the automation bridge can be used here.
func (r *Runner) Supported() error {
	const op = "bridge.Supported"
	if r.Platform != supportedPlatform {
		return errs.E(errs.UnsupportedPlatform, op, fmt.Sprintf("editor automation requires macOS, running on %s", r.Platform), nil)
	}
	if _, err := exec.LookPath(r.Command); err != nil {
		return errs.E(errs.UnsupportedPlatform, op, fmt.Sprintf("%s is not available", r.Command), err)
	}
	return nil
}

// Run executes script inside the editor and waits for it to finish.
// The script file and opts.DataFiles are removed on every exit path.
func (r *Runner) Run(ctx context.Context, script string, opts RunOptions) (*RunResult, error) {
	const op = "bridge.Run"

	defer removeAll(opts.DataFiles)

	if err := r.Supported(); err != nil {
		return nil, err
	}

	scriptPath, err := r.writeTemp("script", ".jsx", []byte(script))
	if err != nil {
		return nil, errs.E(errs.Other, op, "failed to write script file", err)
	}
	defer removeAll([]string{scriptPath})

	timeout := r.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Command, "-e", r.WrapperScript(scriptPath))
	cmd.WaitDelay = time.Second

	slog.Info("Running editor script", "bytes", len(script), "streaming", opts.Streaming, "timeout", timeout)
	start := time.Now()

	var stdout, stderr string
	if opts.Streaming {
		stdout, stderr, err = runStreaming(cmd, opts.Observer)
	} else {
		stdout, stderr, err = runBuffered(cmd)
	}
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, errs.E(errs.Timeout, op, fmt.Sprintf("editor script did not finish within %s", timeout), runCtx.Err())
	}
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		slog.Error("Editor script failed", "error", err, "stderr", msg)
		return nil, errs.E(errs.ExternalProcessFailure, op, msg, err)
	}
	if line, ok := scriptError(stdout); ok {
		slog.Error("Editor script reported an error", "message", line)
		return nil, errs.E(errs.ExternalProcessFailure, op, line, nil)
	}

	slog.Info("Editor script finished", "duration", elapsed)
	return &RunResult{Output: stdout, Stderr: stderr, Duration: elapsed}, nil
}

// WriteData marshals v to a uniquely named JSON file in TempDir and returns its path.
// The caller passes the path in RunOptions.DataFiles so it is removed after the run.
func (r *Runner) WriteData(prefix string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s data: %w", prefix, err)
	}
	return r.writeTemp(prefix, ".json", data)
}

// WrapperScript builds the AppleScript that runs scriptPath in the editor
// and gives focus back to whatever application was in front before.
func (r *Runner) WrapperScript(scriptPath string) string {
	lines := []string{
		`set _frontApp to ""`,
		`try`,
		`  tell application "System Events" to set _frontApp to name of first application process whose frontmost is true`,
		`end try`,
		fmt.Sprintf(`tell application id "%s"`, scripts.AppleScriptString(r.BundleID)),
		fmt.Sprintf(`  set _result to do javascript file "%s"`, scripts.AppleScriptString(scriptPath)),
		`end tell`,
	}
	cond := `_frontApp is not ""`
	if r.HostApp != "" {
		cond += fmt.Sprintf(` and _frontApp is not "%s"`, scripts.AppleScriptString(r.HostApp))
	}
	lines = append(lines,
		fmt.Sprintf(`if %s then`, cond),
		`  try`,
		`    tell application _frontApp to activate`,
		`  end try`,
		`end if`,
		`return _result`,
	)
	return strings.Join(lines, "\n")
}

// EditorRunning asks the bridge whether the editor process is up.
func (r *Runner) EditorRunning(ctx context.Context) (bool, error) {
	if err := r.Supported(); err != nil {
		return false, err
	}
	query := fmt.Sprintf(`application id "%s" is running`, scripts.AppleScriptString(r.BundleID))
	out, err := exec.CommandContext(ctx, r.Command, "-e", query).Output()
	if err != nil {
		return false, errs.E(errs.ExternalProcessFailure, "bridge.EditorRunning", "failed to query editor state", err)
	}
	return strings.TrimSpace(string(out)) == "true", nil
}

func (r *Runner) writeTemp(prefix, ext string, data []byte) (string, error) {
	dir := r.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("boardkit-%s-%s%s", prefix, uuid.NewString(), ext))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func runBuffered(cmd *exec.Cmd) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func runStreaming(cmd *exec.Cmd, observer func(Line)) (string, string, error) {
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", fmt.Errorf("failed to open stdout: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", "", fmt.Errorf("failed to open stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", "", fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	var (
		mu     sync.Mutex
		stdout strings.Builder
		stderr strings.Builder
		wg     sync.WaitGroup
	)
	// Lines are read whole, whatever their length; the pipe is drained even
	// after a read error so the child never blocks on a full pipe.
	forward := func(r io.Reader, stream string, sink *strings.Builder) {
		defer wg.Done()
		reader := bufio.NewReader(r)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				text = strings.TrimRight(text, "\r\n")
				mu.Lock()
				sink.WriteString(text)
				sink.WriteByte('\n')
				if observer != nil && strings.TrimSpace(text) != "" {
					observer(Line{Stream: stream, Text: text})
				}
				mu.Unlock()
			}
			if err == nil {
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				mu.Lock()
				fmt.Fprintf(&stderr, "failed to read %s: %v\n", stream, err)
				mu.Unlock()
				_, _ = io.Copy(io.Discard, r)
			}
			return
		}
	}
	wg.Add(2)
	go forward(outPipe, "stdout", &stdout)
	go forward(errPipe, "stderr", &stderr)
	wg.Wait()

	err = cmd.Wait()
	return stdout.String(), stderr.String(), err
}

func scriptError(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, ScriptErrorMarker); idx >= 0 {
			return strings.TrimSpace(line[idx+len(ScriptErrorMarker):]), true
		}
	}
	return "", false
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove temp file", "path", p, "error", err)
		}
	}
}
