// Package sink writes funnel stage outputs to disk as CSV files grouped
// under per-run output directories.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"igfunnel/pkg/logger"
	"igfunnel/pkg/record"
)

// Sink persists a named batch of records. Names are logical dataset
// names, not file paths; the implementation decides the layout.
type Sink interface {
	Write(name string, records []record.Record) error
}

// CSVWriter writes each dataset as <dir>/<name>.csv. Columns are the
// sorted union of field names across the batch, so rows with missing
// fields still line up; missing values render as empty cells.
type CSVWriter struct {
	dir    string
	logger logger.Logger
}

// NewCSVWriter creates a writer rooted at dir, creating it if needed.
func NewCSVWriter(dir string, log logger.Logger) (*CSVWriter, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &CSVWriter{dir: dir, logger: log}, nil
}

// Dir returns the directory datasets are written into.
func (w *CSVWriter) Dir() string {
	return w.dir
}

// Write persists one dataset. An empty batch still produces a file with
// no rows, so a run's output directory always documents which stages ran.
func (w *CSVWriter) Write(name string, records []record.Record) error {
	path := filepath.Join(w.dir, name+".csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := fieldUnion(records)
	if len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for _, r := range records {
		row := make([]string, len(header))
		for i, field := range header {
			if v, ok := r[field]; ok {
				row[i] = formatValue(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	w.logger.InfoWithFields("dataset written", map[string]interface{}{
		"path": path,
		"rows": len(records),
	})
	return nil
}

// fieldUnion returns the sorted set of field names present in the batch.
func fieldUnion(records []record.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for field := range r {
			seen[field] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		// Counters arrive as float64 when decoded from untyped JSON.
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

var runDirPattern = regexp.MustCompile(`^run(\d+)_outputs$`)

// NextRunDir scans base for run<N>_outputs directories and creates the
// next one in sequence, starting at run1_outputs.
func NextRunDir(base string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("failed to create base directory: %w", err)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("failed to read base directory: %w", err)
	}

	highest := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := runDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil && n > highest {
			highest = n
		}
	}

	dir := filepath.Join(base, fmt.Sprintf("run%d_outputs", highest+1))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}
