package attendance

import (
    "strings"
    "testing"

    "github.com/dirflash/fuse-pairing/internal/models"
)

const sampleRoster = "Name,Alias,Extra,Status\n" +
    "Alice Smith (asmith),asmith,x,Accepted\n" +
    "Bob Jones (bjones),bjones,x,Declined\n" +
    "Carl Dana (cdana),cdana,x,Tentative\n" +
    "Eve Young (eyoung),eyoung,x,\n"

func TestParseRosterClassifiesStatuses(t *testing.T) {
    rows, err := ParseRoster(strings.NewReader(sampleRoster))
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(rows) != 4 {
        t.Fatalf("expected 4 rows, got %d", len(rows))
    }

    record := BuildRecord("2024-06-01", rows)
    if _, ok := record.Accepted["asmith"]; !ok {
        t.Fatalf("expected asmith accepted")
    }
    if _, ok := record.Declined["bjones"]; !ok {
        t.Fatalf("expected bjones declined")
    }
    if _, ok := record.Tentative["cdana"]; !ok {
        t.Fatalf("expected cdana tentative")
    }
    if _, ok := record.NoResponse["eyoung"]; !ok {
        t.Fatalf("expected eyoung no_response")
    }
}

func TestParseRosterTrimsBOM(t *testing.T) {
    withBOM := "\xEF\xBB\xBF" + sampleRoster
    rows, err := ParseRoster(strings.NewReader(withBOM))
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if rows[0].Alias != "asmith" {
        t.Fatalf("expected first alias asmith, got %q", rows[0].Alias)
    }
}

func TestBuildRecordDisjointSets(t *testing.T) {
    rows := []models.RosterRow{
        {Alias: "a", Status: models.StatusAccepted},
        {Alias: "b", Status: models.StatusDeclined},
    }
    record := BuildRecord("2024-06-01", rows)

    all := []map[string]struct{}{record.Accepted, record.Declined, record.Tentative, record.NoResponse}
    seen := make(map[string]int)
    for _, set := range all {
        for alias := range set {
            seen[alias]++
        }
    }
    for alias, count := range seen {
        if count != 1 {
            t.Fatalf("alias %s appeared in %d sets, expected exactly 1", alias, count)
        }
    }
}

func TestInjectHostOddParity(t *testing.T) {
    attendees := map[string]struct{}{"a": {}, "b": {}, "c": {}}
    InjectHost(attendees, "host")
    if _, ok := attendees["host"]; !ok {
        t.Fatalf("expected host injected for odd parity")
    }
    if len(attendees) != 4 {
        t.Fatalf("expected 4 attendees after injection, got %d", len(attendees))
    }
}

func TestInjectHostEvenParityNoOp(t *testing.T) {
    attendees := map[string]struct{}{"a": {}, "b": {}}
    InjectHost(attendees, "host")
    if _, ok := attendees["host"]; ok {
        t.Fatalf("expected no host injection for even parity")
    }
}

func TestInjectHostIdempotent(t *testing.T) {
    attendees := map[string]struct{}{"a": {}, "b": {}, "c": {}}
    InjectHost(attendees, "host")
    InjectHost(attendees, "host")
    if len(attendees) != 4 {
        t.Fatalf("expected second injection to be a no-op, got %d attendees", len(attendees))
    }
}
