package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"yt_exporter/internal/domain"
)

const (
	VideoSheet   = "Video Data"
	CommentSheet = "Comments Data"
)

type Config struct {
	ColumnWidth float64
}

// Workbook writes export runs as .xlsx files.
type Workbook struct {
	columnWidth float64
	logger      *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Workbook {
	return &Workbook{
		columnWidth: cfg.ColumnWidth,
		logger:      logger,
	}
}

// Export writes videos and comments to path as two sheets, replacing any
// existing file.
func (w *Workbook) Export(path string, videos []domain.Video, comments []domain.Comment) error {
	return w.WriteTables(path,
		NewTable(VideoSheet, videos),
		NewTable(CommentSheet, comments),
	)
}

// WriteTables writes each table to its own sheet, in order.
func (w *Workbook) WriteTables(path string, tables ...Table) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", t.Name, err)
		}

		if err := w.writeTable(f, t); err != nil {
			return fmt.Errorf("write sheet %q: %w", t.Name, err)
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("workbook saved",
		"path", path,
		"sheets", len(tables),
	)
	return nil
}

func (w *Workbook) writeTable(f *excelize.File, t Table) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return fmt.Errorf("header: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if len(t.Header) == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	return f.SetColWidth(t.Name, "A", lastCol, w.columnWidth)
}
