package excel

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"gocortex/domain/core"
	"gocortex/internal"
	"gocortex/internal/errors"
	"gocortex/ports"
)

const sheetName = "Inferences"

var headers = []string{"Sequence", "Recorded At", "Layer Input", "SDR", "Anomaly Score", "Predictions"}

// Exporter writes a stream's stored inference results to an xlsx workbook
type Exporter struct {
	repo   ports.ResultRepository
	logger *internal.Logger
}

// NewExporter creates an exporter over a result repository
func NewExporter(repo ports.ResultRepository) *Exporter {
	return &Exporter{
		repo:   repo,
		logger: internal.DefaultLogger.WithComponent("excel"),
	}
}

// Export writes every stored result for a stream to path and returns the
// number of rows written. Absent fields render as empty cells.
func (e *Exporter) Export(ctx context.Context, streamID core.StreamID, path string) (int, error) {
	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(sheetName)
	if err != nil {
		return 0, errors.ExportError("failed to create sheet", err)
	}
	file.SetActiveSheet(index)
	file.DeleteSheet("Sheet1")

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return 0, errors.ExportError("failed to write header", err)
		}
	}

	written := 0
	offset := 0
	const pageSize = 500
	for {
		page, err := e.repo.ListByStream(ctx, streamID, ports.ResultFilters{Limit: pageSize, Offset: offset})
		if err != nil {
			return 0, err
		}
		if len(page) == 0 {
			break
		}
		for _, result := range page {
			if err := writeRow(file, written+2, result); err != nil {
				return 0, err
			}
			written++
		}
		offset += len(page)
	}

	if err := file.SaveAs(path); err != nil {
		return 0, errors.ExportError("failed to save workbook", err)
	}
	e.logger.Info("exported %d results for stream %s to %s", written, streamID, path)
	return written, nil
}

func writeRow(file *excelize.File, rowNum int, result ports.Result) error {
	values := []interface{}{
		result.Sequence,
		result.RecordedAt.String(),
		cellString(result.LayerInput),
		formatSDR(result.SDR),
		cellFloat(result.AnomalyScore),
		formatPredictions(result.Predictions),
	}
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
		if err := file.SetCellValue(sheetName, cell, value); err != nil {
			return errors.ExportError("failed to write row", err)
		}
	}
	return nil
}

func cellString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func cellFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func formatSDR(sdr []int) interface{} {
	if sdr == nil {
		return nil
	}
	parts := make([]string, len(sdr))
	for i, bit := range sdr {
		parts[i] = fmt.Sprintf("%d", bit)
	}
	return strings.Join(parts, " ")
}

func formatPredictions(predictions []ports.FieldPrediction) interface{} {
	if predictions == nil {
		return nil
	}
	parts := make([]string, len(predictions))
	for i, p := range predictions {
		parts[i] = fmt.Sprintf("%s=%s (%.2f)", p.Field, p.PredictedValue, p.Probability)
	}
	return strings.Join(parts, "; ")
}
