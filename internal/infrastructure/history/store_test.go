package history

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

func sampleRecords(base time.Time) []domain.ExecutionRecord {
	return []domain.ExecutionRecord{
		{Timestamp: base.Add(-48 * time.Hour), Dialect: domain.DialectWMIC, Kind: "read-only", Command: "wmic service get Name /format:csv", Strategy: "cmd", Success: false, ExitCode: 1, ErrorKind: domain.ErrKindExit, Error: "not recognized", ExpectedFailure: true},
		{Timestamp: base.Add(-time.Hour), Dialect: domain.DialectPowerShell, Kind: "read-only", Command: "Get-Service", Strategy: "direct", Success: true, ExecutionTimeMS: 120},
		{Timestamp: base, Dialect: domain.DialectCmd, Kind: "mutating", Command: "sc stop Spooler", Strategy: "cmd", Success: true, ExecutionTimeMS: 40},
	}
}

func stores(t *testing.T) map[string]ports.HistoryRepository {
	t.Helper()
	dir := t.TempDir()
	sqlite := NewSQLiteStore(filepath.Join(dir, "history.db"))
	t.Cleanup(func() { _ = sqlite.Close() })
	if sqlite.Degraded() {
		t.Fatalf("expected sqlite store to open at %s", sqlite.Path())
	}
	return map[string]ports.HistoryRepository{
		"sqlite": sqlite,
		"file":   NewFileStore(filepath.Join(dir, "history.jsonl")),
	}
}

func TestStoresRoundTrip(t *testing.T) {
	base := time.Now().Truncate(time.Millisecond)
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, rec := range sampleRecords(base) {
				if err := store.Save(rec); err != nil {
					t.Fatalf("Save error: %v", err)
				}
			}
			records, err := store.Records(0, "")
			if err != nil {
				t.Fatalf("Records error: %v", err)
			}
			if len(records) != 3 {
				t.Fatalf("expected 3 records, got %d", len(records))
			}
			if records[0].Command != "sc stop Spooler" {
				t.Fatalf("expected newest first, got %+v", records[0])
			}
			oldest := records[2]
			if oldest.Dialect != domain.DialectWMIC || oldest.ErrorKind != domain.ErrKindExit || !oldest.ExpectedFailure || oldest.ExitCode != 1 {
				t.Fatalf("fields not preserved: %+v", oldest)
			}
			if !oldest.Timestamp.Equal(base.Add(-48 * time.Hour)) {
				t.Fatalf("timestamp not preserved: %v", oldest.Timestamp)
			}

			limited, err := store.Records(1, "")
			if err != nil || len(limited) != 1 {
				t.Fatalf("expected 1 record with limit, got %d (%v)", len(limited), err)
			}
			found, err := store.Records(0, "Get-Serv")
			if err != nil {
				t.Fatalf("search error: %v", err)
			}
			if len(found) != 1 || found[0].Command != "Get-Service" {
				t.Fatalf("unexpected search result: %+v", found)
			}
		})
	}
}

func TestStoresPruneAndClear(t *testing.T) {
	base := time.Now().Truncate(time.Millisecond)
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, rec := range sampleRecords(base) {
				if err := store.Save(rec); err != nil {
					t.Fatalf("Save error: %v", err)
				}
			}
			removed, err := store.Prune(base.Add(-24 * time.Hour))
			if err != nil {
				t.Fatalf("Prune error: %v", err)
			}
			if removed != 1 {
				t.Fatalf("expected 1 pruned record, got %d", removed)
			}
			records, _ := store.Records(0, "")
			if len(records) != 2 {
				t.Fatalf("expected 2 records after prune, got %d", len(records))
			}

			if err := store.Clear(); err != nil {
				t.Fatalf("Clear error: %v", err)
			}
			records, _ = store.Records(0, "")
			if len(records) != 0 {
				t.Fatalf("expected empty journal, got %d", len(records))
			}
		})
	}
}

func TestStoresExportJSON(t *testing.T) {
	base := time.Now()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, rec := range sampleRecords(base) {
				if err := store.Save(rec); err != nil {
					t.Fatalf("Save error: %v", err)
				}
			}
			dest := filepath.Join(t.TempDir(), "export.jsonl")
			if err := store.ExportJSON(dest); err != nil {
				t.Fatalf("ExportJSON error: %v", err)
			}
			file, err := os.Open(dest)
			if err != nil {
				t.Fatal(err)
			}
			defer file.Close()
			lines := 0
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				lines++
			}
			if lines != 3 {
				t.Fatalf("expected 3 exported lines, got %d", lines)
			}
		})
	}
}

func TestSQLiteStoreFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("file, not dir"), 0o600); err != nil {
		t.Fatal(err)
	}
	store := NewSQLiteStore(filepath.Join(blocker, "history.db"))
	if !store.Degraded() {
		t.Fatal("expected degraded store when the directory cannot be created")
	}
	if filepath.Ext(store.Path()) != ".jsonl" {
		t.Fatalf("expected jsonl fallback path, got %s", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "none.jsonl"))
	records, err := store.Records(10, "")
	if err != nil || records != nil {
		t.Fatalf("expected no records and no error, got %v %v", records, err)
	}
	if n, err := store.Prune(time.Now()); err != nil || n != 0 {
		t.Fatalf("expected nothing pruned, got %d %v", n, err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
}
