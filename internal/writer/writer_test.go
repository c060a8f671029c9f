package writer

import (
    "context"
    "encoding/csv"
    "math/rand"
    "os"
    "path/filepath"
    "testing"

    "github.com/dirflash/fuse-pairing/internal/directory"
    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
)

func TestWriteTestModeReturnsSentinel(t *testing.T) {
    w := New(history.NewFakeStore(), directory.NewFakeStore(nil), t.TempDir(), rand.New(rand.NewSource(1)))

    got, err := w.Write(context.Background(), "2024-06-01", nil, true)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if got != "NA" {
        t.Fatalf("expected NA sentinel, got %q", got)
    }
}

func TestWriteEmitsCSVAndHistory(t *testing.T) {
    dir := t.TempDir()
    histStore := history.NewFakeStore()
    dirStore := directory.NewFakeStore(map[string]models.SE{
        "alice": {Alias: "alice", DisplayName: "Alice Smith", RegionIndex: 1},
        "bob":   {Alias: "bob", DisplayName: "Bob Jones", RegionIndex: 2},
    })
    w := New(histStore, dirStore, dir, rand.New(rand.NewSource(1)))

    filename, err := w.Write(context.Background(), "2024-06-01", []models.Pair{{SE1: "alice", SE2: "bob"}}, false)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if filename != "2024_06_01-matches.csv" {
        t.Fatalf("unexpected filename: %s", filename)
    }

    f, err := os.Open(filepath.Join(dir, filename))
    if err != nil {
        t.Fatalf("expected CSV file to exist: %v", err)
    }
    defer f.Close()

    rows, err := csv.NewReader(f).ReadAll()
    if err != nil {
        t.Fatalf("failed to read CSV: %v", err)
    }
    if len(rows) != 2 {
        t.Fatalf("expected header + 1 row, got %d rows", len(rows))
    }
    if rows[0][0] != "SE1_NAME" {
        t.Fatalf("unexpected header: %v", rows[0])
    }

    aliceHist, err := histStore.History(context.Background(), "alice")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if aliceHist["2024-06-01"] != "bob" {
        t.Fatalf("expected history symmetry, got %v", aliceHist)
    }
}
