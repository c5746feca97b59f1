package export

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vesselwatch/transit-engine/internal/types"
)

// Writer exports voyage tables to timestamped CSV files in an output
// directory.
type Writer struct {
	outputDir string
	now       func() time.Time
}

// New creates a Writer rooted at outputDir.
func New(outputDir string) *Writer {
	return &Writer{outputDir: outputDir, now: time.Now}
}

// WriteVoyages writes the voyage table to transit_results_<timestamp>.csv
// and returns the file path.
func (w *Writer) WriteVoyages(voyages []types.Voyage) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("transit_results_%s.csv", w.now().UTC().Format("20060102_150405"))
	path := filepath.Join(w.outputDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"imo", "entry_time", "exit_time", "duration"}); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, v := range voyages {
		record := []string{
			strconv.FormatInt(v.VesselID, 10),
			v.EntryTime.UTC().Format(time.RFC3339),
			v.ExitTime.UTC().Format(time.RFC3339),
			v.Duration.String(),
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write voyage row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export file: %w", err)
	}
	return path, nil
}

// ArchiveOld gzip-compresses every previous export in the output
// directory, leaving the most recent untouched.
func (w *Writer) ArchiveOld() error {
	entries, err := os.ReadDir(w.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	var exports []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "transit_results_") && strings.HasSuffix(name, ".csv") {
			exports = append(exports, name)
		}
	}
	if len(exports) < 2 {
		return nil
	}

	// Timestamped names sort chronologically; keep the newest.
	newest := exports[0]
	for _, name := range exports[1:] {
		if name > newest {
			newest = name
		}
	}
	for _, name := range exports {
		if name == newest {
			continue
		}
		if err := compressFile(filepath.Join(w.outputDir, name)); err != nil {
			return fmt.Errorf("failed to compress %s: %w", name, err)
		}
	}
	return nil
}

// compressFile compresses a file using gzip and removes the original.
func compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer target.Close()

	gzipWriter := gzip.NewWriter(target)
	if _, err := io.Copy(gzipWriter, source); err != nil {
		gzipWriter.Close()
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
