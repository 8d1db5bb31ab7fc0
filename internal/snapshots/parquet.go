package snapshots

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/photostack/boardkit/internal/layout"
	"github.com/photostack/boardkit/internal/models"
)

// LayerRow is the flat, columnar form of one snapshot layer.
type LayerRow struct {
	Document      string  `parquet:"document"`
	DPI           float64 `parquet:"dpi"`
	LayerID       int64   `parquet:"layer_id"`
	LayerName     string  `parquet:"layer_name"`
	GroupPath     string  `parquet:"group_path"`
	Role          string  `parquet:"role"`
	Cohort        string  `parquet:"cohort,optional"`
	X             float64 `parquet:"x"`
	Y             float64 `parquet:"y"`
	Width         float64 `parquet:"width"`
	Height        float64 `parquet:"height"`
	Kind          string  `parquet:"kind"`
	Text          string  `parquet:"text,optional"`
	Justification string  `parquet:"justification,optional"`
}

// Rows flattens snap into one row per layer, tagged with its role.
func Rows(snap *models.Snapshot) []LayerRow {
	rows := make([]LayerRow, 0, len(snap.Layers))
	for _, l := range snap.Layers {
		role := layout.RoleOf(l.GroupPath)
		row := LayerRow{
			Document:      snap.Document.Name,
			DPI:           snap.Document.DPI,
			LayerID:       int64(l.LayerID),
			LayerName:     l.LayerName,
			GroupPath:     strings.Join(l.GroupPath, "/"),
			Role:          role.Kind.String(),
			X:             l.X,
			Y:             l.Y,
			Width:         l.Width,
			Height:        l.Height,
			Kind:          l.Kind,
			Text:          l.Text,
			Justification: l.Justification,
		}
		if role.Kind != layout.RoleOther {
			row.Cohort = role.Cohort.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// ExportParquet writes the layers of snap to a Parquet file at path.
func ExportParquet(path string, snap *models.Snapshot) error {
	rows := Rows(snap)
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	slog.Info("Snapshot exported", "path", path, "rows", len(rows))
	return nil
}

// ReadParquet loads the layer rows of an exported snapshot.
func ReadParquet(path string) ([]LayerRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[LayerRow](pf)
	defer reader.Close()

	rows := make([]LayerRow, 0, pf.NumRows())
	batch := make([]LayerRow, 64)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return rows, nil
}
