package plan

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout names plan and log files.
const TimestampLayout = "20060102_150405"

var (
	PlanColumns    = []string{"status", "approved", "filename", "matched_client", "source_path", "destination_path"}
	LogColumns     = []string{"result", "filename", "source_path", "destination_path", "matched_client"}
	UndoLogColumns = []string{"result", "filename", "source_path", "destination_path", "matched_client", "undo_result"}
)

// State is the review state of a plan artifact.
type State string

const (
	StateDraft    State = "DRAFT"
	StateApproved State = "APPROVED"
)

// Plan is a loaded plan file.
type Plan struct {
	Path    string
	Records []Record
}

// State is APPROVED once any row is approved.
func (p *Plan) State() State {
	for _, rec := range p.Records {
		if rec.IsApproved() {
			return StateApproved
		}
	}
	return StateDraft
}

// Approved returns the approved rows in file order.
func (p *Plan) Approved() []Record {
	out := make([]Record, 0, len(p.Records))
	for _, rec := range p.Records {
		if rec.IsApproved() {
			out = append(out, rec)
		}
	}
	return out
}

// LogKind selects the file name prefix and column set of a log.
type LogKind string

const (
	LogDryRun     LogKind = "dryrun"
	LogExecuted   LogKind = "executed"
	LogUndoDryRun LogKind = "undo_dryrun"
	LogUndone     LogKind = "undone"
)

func (k LogKind) isUndo() bool {
	return k == LogUndoDryRun || k == LogUndone
}

func (k LogKind) columns() []string {
	if k.isUndo() {
		return UndoLogColumns
	}
	return LogColumns
}

// Save writes records as a new preview_<ts>.csv in dir and returns its path.
// Every approved cell is written empty; a plan is never pre-approved.
func Save(dir string, records []Record, now time.Time) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			string(rec.Status()),
			"",
			rec.Filename,
			rec.MatchedClient,
			rec.SourcePath,
			rec.DestinationPath,
		})
	}
	return writeNew(dir, "preview", now, PlanColumns, rows, 0o644)
}

// SaveLog writes records as a new <kind>_<ts>.csv in dir. Logs are created
// read-only.
func SaveLog(dir string, kind LogKind, records []Record, now time.Time) (string, error) {
	undo := kind.isUndo()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := []string{
			rec.Result.String(),
			rec.Filename,
			rec.SourcePath,
			rec.DestinationPath,
			rec.MatchedClient,
		}
		if undo {
			row = append(row, rec.UndoResult.String())
		}
		rows = append(rows, row)
	}
	return writeNew(dir, string(kind), now, kind.columns(), rows, 0o444)
}

// Load reads a plan file. A missing required column is reported as
// ErrMalformedRow; short rows are padded with empty values.
func Load(path string) (*Plan, error) {
	rows, err := readAll(path, PlanColumns)
	if err != nil {
		return nil, err
	}
	p := &Plan{Path: path, Records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		p.Records = append(p.Records, Record{
			Approved:        row["approved"],
			Filename:        row["filename"],
			MatchedClient:   row["matched_client"],
			SourcePath:      row["source_path"],
			DestinationPath: row["destination_path"],
		})
	}
	return p, nil
}

// LoadLog reads an execution or undo log.
func LoadLog(path string) ([]Record, error) {
	rows, err := readAll(path, LogColumns)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		result, err := ParseOutcome(row["result"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformedRow, filepath.Base(path), i+2, err)
		}
		undoResult, err := ParseOutcome(row["undo_result"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformedRow, filepath.Base(path), i+2, err)
		}
		records = append(records, Record{
			Filename:        row["filename"],
			SourcePath:      row["source_path"],
			DestinationPath: row["destination_path"],
			MatchedClient:   row["matched_client"],
			Result:          result,
			UndoResult:      undoResult,
		})
	}
	return records, nil
}

func readAll(path string, required []string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s has no header row", ErrMalformedRow, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[name] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s is missing column %q", ErrMalformedRow, filepath.Base(path), name)
		}
	}

	var rows []map[string]string
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		row := make(map[string]string, len(columns))
		for name, idx := range columns {
			if idx < len(fields) {
				row[name] = strings.TrimSpace(fields[idx])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeNew creates <prefix>_<ts>.csv, adding a numeric suffix when a file of
// that name already exists. Existing files are never overwritten.
func writeNew(dir, prefix string, now time.Time, header []string, rows [][]string, mode os.FileMode) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	stamp := now.Format(TimestampLayout)
	for attempt := 1; ; attempt++ {
		name := fmt.Sprintf("%s_%s.csv", prefix, stamp)
		if attempt > 1 {
			name = fmt.Sprintf("%s_%s_%d.csv", prefix, stamp, attempt)
		}
		path := filepath.Join(dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", name, err)
		}
		if err := writeCSV(file, header, rows); err != nil {
			_ = file.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write %s: %w", name, err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", name, err)
		}
		return path, nil
	}
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
