package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/photostack/boardkit/fragments"
	"github.com/photostack/boardkit/internal/bridge"
	"github.com/photostack/boardkit/internal/errs"
	"github.com/photostack/boardkit/internal/models"
	"github.com/photostack/boardkit/internal/scripts"
)

// Stage is a step of the apply state machine.
type Stage string

const (
	StageReadLayout   Stage = "read-layout"
	StageClassify     Stage = "classify"
	StageComputeMoves Stage = "compute-moves"
	StageExecute      Stage = "execute"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// ScriptBuilder composes fragment scripts.
type ScriptBuilder interface {
	Compose(name string, opts scripts.Overrides) (string, error)
}

// ScriptRunner runs composed scripts in the editor.
type ScriptRunner interface {
	Run(ctx context.Context, script string, opts bridge.RunOptions) (*bridge.RunResult, error)
	WriteData(prefix string, v any) (string, error)
}

// TemplateSource looks up saved templates.
type TemplateSource interface {
	Get(id string) (*models.Template, error)
}

// Engine drives capture and apply against the editor.
type Engine struct {
	Scripts   ScriptBuilder
	Runner    ScriptRunner
	Templates TemplateSource
	// OnStage, if set, is called whenever an apply operation enters a stage.
	OnStage func(Stage)
}

// ApplyOptions tune a single apply operation.
type ApplyOptions struct {
	TargetDocument string
	BoardFile      string
	// DryRun computes the plan without executing it.
	DryRun   bool
	Observer func(bridge.Line)
}

// ApplyResult describes a finished apply operation.
type ApplyResult struct {
	Template *models.Template
	Snapshot *models.Snapshot
	Buckets  Buckets
	Plan     Plan
	// NoOp is set when nothing had to move.
	NoOp   bool
	Output string
}

// ReadLayout runs the read fragment against doc (the active document when empty).
func (e *Engine) ReadLayout(ctx context.Context, doc string) (*models.Snapshot, error) {
	script, err := e.Scripts.Compose(fragments.ReadLayout, scripts.Overrides{TargetDocument: doc})
	if err != nil {
		return nil, err
	}
	res, err := e.Runner.Run(ctx, script, bridge.RunOptions{})
	if err != nil {
		return nil, err
	}
	snap, err := ParseLayout(res.Output)
	if err != nil {
		return nil, err
	}
	slog.Info("Layout read", "document", snap.Document.Name, "layers", len(snap.Layers), "dpi", snap.Document.DPI)
	return snap, nil
}

// Capture reads doc and turns its layout into an unsaved template.
func (e *Engine) Capture(ctx context.Context, name, doc string, board models.BoardSettings, names models.NameSettings) (*models.Template, error) {
	if name == "" {
		return nil, errs.E(errs.Invalid, "layout.Capture", "template name is required", nil)
	}
	snap, err := e.ReadLayout(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	tmpl := CaptureTemplate(name, snap, board, names)
	slog.Info("Template captured",
		"name", tmpl.Name,
		"primary_slots", len(tmpl.PrimarySlots),
		"secondary_slots", len(tmpl.SecondarySlots),
		"fixed_layers", len(tmpl.FixedLayers))
	return tmpl, nil
}

// Apply replays the template templateID onto the target document.
func (e *Engine) Apply(ctx context.Context, templateID string, opts ApplyOptions) (*ApplyResult, error) {
	tmpl, err := e.Templates.Get(templateID)
	if err != nil {
		return nil, err
	}

	e.enter(StageReadLayout)
	snap, err := e.ReadLayout(ctx, opts.TargetDocument)
	if err != nil {
		return nil, e.fail(StageReadLayout, err)
	}

	e.enter(StageClassify)
	buckets := Classify(snap.Layers)
	slog.Debug("Layers classified",
		"primary_images", len(buckets.Cohorts[Primary].Images),
		"secondary_images", len(buckets.Cohorts[Secondary].Images),
		"other", len(buckets.Other))

	e.enter(StageComputeMoves)
	plan := PlanMoves(tmpl, buckets, snap.Document)
	slog.Info("Moves computed",
		"template", tmpl.ID,
		"moves", len(plan.Moves),
		"dpi_scale", plan.DPIScale,
		"placed", plan.Placed,
		"overflow", plan.Overflow,
		"skipped", plan.Skipped)

	result := &ApplyResult{Template: tmpl, Snapshot: snap, Buckets: buckets, Plan: plan}
	if plan.Empty() {
		result.NoOp = true
		e.enter(StageDone)
		return result, nil
	}
	if opts.DryRun {
		e.enter(StageDone)
		return result, nil
	}

	e.enter(StageExecute)
	out, err := e.execute(ctx, plan, opts)
	if err != nil {
		return nil, e.fail(StageExecute, err)
	}
	result.Output = out
	e.enter(StageDone)
	return result, nil
}

func (e *Engine) execute(ctx context.Context, plan Plan, opts ApplyOptions) (string, error) {
	dataPath, err := e.Runner.WriteData("moves", models.MoveList{Moves: plan.Moves})
	if err != nil {
		return "", errs.E(errs.Other, "layout.Apply", "failed to write move list", err)
	}
	handedOff := false
	defer func() {
		if handedOff {
			return
		}
		if err := os.Remove(dataPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove move list", "path", dataPath, "error", err)
		}
	}()

	script, err := e.Scripts.Compose(fragments.ApplyTemplate, scripts.Overrides{
		DataFile:       dataPath,
		TargetDocument: opts.TargetDocument,
		BoardFile:      opts.BoardFile,
	})
	if err != nil {
		return "", err
	}

	handedOff = true
	res, err := e.Runner.Run(ctx, script, bridge.RunOptions{
		Streaming: opts.Observer != nil,
		Observer:  opts.Observer,
		DataFiles: []string{dataPath},
	})
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

func (e *Engine) enter(s Stage) {
	slog.Debug("Apply stage", "stage", s)
	if e.OnStage != nil {
		e.OnStage(s)
	}
}

func (e *Engine) fail(s Stage, err error) error {
	e.enter(StageFailed)
	return fmt.Errorf("apply failed at %s: %w", s, err)
}
