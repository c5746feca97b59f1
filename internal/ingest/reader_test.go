package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vesselwatch/transit-engine/internal/types"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "positions.csv",
		"imo,timestamp,latitude,longitude,destination\n"+
			"9321483,2025-06-01T00:00:00Z,9.31,-80.01,BALBOA\n"+
			"9321483,2025-06-01 01:00:00,9.28,-79.92,\n")

	positions, rowErrs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("ReadFile() unexpected row errors: %v", rowErrs)
	}
	if len(positions) != 2 {
		t.Fatalf("ReadFile() returned %d positions, want 2", len(positions))
	}

	want := types.Position{
		VesselID:    9321483,
		Timestamp:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Latitude:    9.31,
		Longitude:   -80.01,
		Destination: "BALBOA",
	}
	if positions[0] != want {
		t.Errorf("ReadFile() position 0 = %+v, want %+v", positions[0], want)
	}
	if positions[1].Timestamp != time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC) {
		t.Errorf("ReadFile() space-separated timestamp = %v", positions[1].Timestamp)
	}
}

func TestReadFileCollectsRowErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "positions.csv",
		"imo,timestamp,latitude,longitude\n"+
			"9321483,2025-06-01T00:00:00Z,9.31,-80.01\n"+
			"not-an-imo,2025-06-01T01:00:00Z,9.28,-79.92\n"+
			"9321483,not-a-time,9.28,-79.92\n"+
			"9321483,2025-06-01T02:00:00Z,bad-lat,-79.92\n"+
			"9321483,2025-06-01T03:00:00Z,9.20,-79.85\n")

	positions, rowErrs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Errorf("ReadFile() returned %d positions, want 2", len(positions))
	}
	if len(rowErrs) != 3 {
		t.Fatalf("ReadFile() returned %d row errors, want 3: %v", len(rowErrs), rowErrs)
	}
	if rowErrs[0].Line != 3 {
		t.Errorf("ReadFile() first row error line = %d, want 3", rowErrs[0].Line)
	}
}

func TestReadFileMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "positions.csv", "imo,timestamp,latitude\n9321483,2025-06-01T00:00:00Z,9.31\n")

	if _, _, err := ReadFile(path); err == nil {
		t.Errorf("ReadFile() expected error for missing longitude column")
	}
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_second.csv",
		"imo,timestamp,latitude,longitude\n9000002,2025-06-02T00:00:00Z,9.0,-80.0\n")
	writeFile(t, dir, "a_first.csv",
		"imo,timestamp,latitude,longitude\n9000001,2025-06-01T00:00:00Z,9.1,-80.1\n")
	writeFile(t, dir, "ignored.txt", "not a csv")

	positions, rowErrs, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() unexpected error: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Errorf("ReadDir() unexpected row errors: %v", rowErrs)
	}
	if len(positions) != 2 {
		t.Fatalf("ReadDir() returned %d positions, want 2", len(positions))
	}
	// Lexicographic file order is the ingestion order.
	if positions[0].VesselID != 9000001 || positions[1].VesselID != 9000002 {
		t.Errorf("ReadDir() order = %d, %d", positions[0].VesselID, positions[1].VesselID)
	}
}

func TestReadDirNoFiles(t *testing.T) {
	if _, _, err := ReadDir(t.TempDir()); err == nil {
		t.Errorf("ReadDir() expected error for empty directory")
	}
}

func TestParseMessage(t *testing.T) {
	msg := &types.PositionMessage{
		Raw:    "9321483,2025-06-01T00:00:00Z,9.31,-80.01,CRISTOBAL",
		Source: "positions.csv",
	}
	pos, err := ParseMessage(msg)
	if err != nil {
		t.Fatalf("ParseMessage() unexpected error: %v", err)
	}
	if pos.VesselID != 9321483 || pos.Destination != "CRISTOBAL" {
		t.Errorf("ParseMessage() = %+v", pos)
	}

	if _, err := ParseMessage(&types.PositionMessage{Raw: "garbage"}); err == nil {
		t.Errorf("ParseMessage() expected error for malformed raw row")
	}
}
