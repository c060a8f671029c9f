package attendance

import (
    "context"
    "testing"

    "github.com/dirflash/fuse-pairing/internal/models"
)

func TestFakeStoreSaveLoadRoundTrip(t *testing.T) {
    store := NewFakeStore()
    record := models.NewAttendanceRecord("2024-06-01")
    record.Accepted["a1"] = struct{}{}
    record.Declined["a2"] = struct{}{}

    if err := store.Save(context.Background(), record); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }

    loaded, err := store.Load(context.Background(), "2024-06-01")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if _, ok := loaded.Accepted["a1"]; !ok {
        t.Fatalf("expected a1 accepted")
    }
    if _, ok := loaded.Declined["a2"]; !ok {
        t.Fatalf("expected a2 declined")
    }
}

func TestFakeStoreReplacesMembershipOnSecondSave(t *testing.T) {
    store := NewFakeStore()
    first := models.NewAttendanceRecord("2024-06-01")
    first.Accepted["a1"] = struct{}{}
    store.Save(context.Background(), first)

    second := models.NewAttendanceRecord("2024-06-01")
    second.Declined["a1"] = struct{}{}
    store.Save(context.Background(), second)

    loaded, _ := store.Load(context.Background(), "2024-06-01")
    if _, ok := loaded.Accepted["a1"]; ok {
        t.Fatalf("expected a1 no longer accepted after re-intake")
    }
    if _, ok := loaded.Declined["a1"]; !ok {
        t.Fatalf("expected a1 declined after re-intake")
    }
}
