package jsonl

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"gocortex/domain/core"
	"gocortex/internal"
	"gocortex/internal/errors"
	"gocortex/ports"
)

// Reader ingests inference results produced by external pipeline
// processes, one JSON object per line. Field extraction is tolerant by
// design: optional carrier fields that are missing from a line stay absent
// on the stored result, mirroring how sinks must tolerate absent fields.
// Lines that are not valid JSON or lack a sequence number are skipped
// with a warning rather than failing the whole feed.
type Reader struct {
	repo   ports.ResultRepository
	logger *internal.Logger
}

// NewReader creates a JSONL ingestion reader over a result repository
func NewReader(repo ports.ResultRepository) *Reader {
	return &Reader{
		repo:   repo,
		logger: internal.DefaultLogger.WithComponent("jsonl"),
	}
}

// IngestFile ingests a JSONL file and returns the number of results saved
func (r *Reader) IngestFile(ctx context.Context, streamID core.StreamID, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.IngestError("failed to open feed file", err)
	}
	defer file.Close()
	return r.Ingest(ctx, streamID, file)
}

// Ingest reads JSON lines from rd and saves one result per valid line
func (r *Reader) Ingest(ctx context.Context, streamID core.StreamID, rd io.Reader) (int, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ingested := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ingested, err
		}

		result, ok := r.parseLine(streamID, line, lineNum)
		if !ok {
			continue
		}
		if err := r.repo.Save(ctx, result); err != nil {
			return ingested, err
		}
		ingested++
	}
	if err := scanner.Err(); err != nil {
		return ingested, errors.IngestError("failed to read feed", err)
	}

	r.logger.Info("ingested %d results for stream %s", ingested, streamID)
	return ingested, nil
}

func (r *Reader) parseLine(streamID core.StreamID, line string, lineNum int) (*ports.Result, bool) {
	if !gjson.Valid(line) {
		r.logger.Warn("line %d: not valid JSON, skipping", lineNum)
		return nil, false
	}

	seq := gjson.Get(line, "sequence")
	if !seq.Exists() {
		r.logger.Warn("line %d: missing sequence, skipping", lineNum)
		return nil, false
	}

	result := &ports.Result{
		ID:         core.NewPassID(),
		StreamID:   streamID,
		Sequence:   int(seq.Int()),
		RecordedAt: core.Now(),
	}

	if at := gjson.Get(line, "recorded_at"); at.Exists() {
		if parsed, err := time.Parse(time.RFC3339, at.String()); err == nil {
			result.RecordedAt = core.NewTimestamp(parsed)
		}
	}
	if input := gjson.Get(line, "layer_input"); input.Exists() {
		s := input.String()
		result.LayerInput = &s
	}
	if sdr := gjson.Get(line, "sdr"); sdr.IsArray() {
		bits := sdr.Array()
		result.SDR = make([]int, 0, len(bits))
		for _, bit := range bits {
			result.SDR = append(result.SDR, int(bit.Int()))
		}
	}
	if score := gjson.Get(line, "anomaly_score"); score.Exists() {
		value := score.Float()
		result.AnomalyScore = &value
	}
	if predictions := gjson.Get(line, "predictions"); predictions.IsArray() {
		for _, p := range predictions.Array() {
			field := p.Get("field").String()
			if field == "" {
				continue
			}
			result.Predictions = append(result.Predictions, ports.FieldPrediction{
				Field:          core.FieldName(field),
				PredictedValue: p.Get("predicted_value").String(),
				Probability:    p.Get("probability").Float(),
			})
		}
	}

	return result, true
}
