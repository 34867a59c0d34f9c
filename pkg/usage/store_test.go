package usage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "usage.db")}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndSummarize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	recs := []*Record{
		{RequestID: "r1", CredentialID: "a", Model: "claude-sonnet-4-20250514", InputTokens: 100, OutputTokens: 50, StopReason: "end_turn", Attempts: 1, Duration: 2 * time.Second},
		{RequestID: "r2", CredentialID: "a", Model: "claude-sonnet-4-20250514", InputTokens: 10, OutputTokens: 5, StopReason: "tool_use", Attempts: 2, Duration: time.Second},
		{RequestID: "r3", CredentialID: "b", Model: "claude-haiku-4", InputTokens: 7, OutputTokens: 3, StopReason: "end_turn", Attempts: 1, Duration: time.Second},
	}
	for _, rec := range recs {
		if err := s.Record(ctx, rec); err != nil {
			t.Fatalf("Record(%s) error = %v", rec.RequestID, err)
		}
		if rec.ID == "" {
			t.Errorf("Record(%s) left ID empty, want assigned", rec.RequestID)
		}
	}

	sums, err := s.Summarize(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("len(Summarize()) = %d, want 2 model/credential groups", len(sums))
	}
	// Ordered by model, then credential.
	if sums[0].Model != "claude-haiku-4" || sums[0].Requests != 1 {
		t.Errorf("sums[0] = %+v", sums[0])
	}
	if sums[1].CredentialID != "a" || sums[1].Requests != 2 || sums[1].InputTokens != 110 || sums[1].OutputTokens != 55 {
		t.Errorf("sums[1] = %+v", sums[1])
	}
}

func TestRecordStoresMetering(t *testing.T) {
	s := openTestStore(t)
	rec := &Record{
		RequestID:    "r1",
		CredentialID: "a",
		Model:        "claude-sonnet-4-20250514",
		Metering: []json.RawMessage{
			json.RawMessage(`{"unit":"credits","value":1}`),
		},
	}
	if err := s.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	var metering string
	err := s.db.QueryRow("SELECT metering FROM usage_records WHERE id = ?", rec.ID).Scan(&metering)
	if err != nil {
		t.Fatalf("query metering: %v", err)
	}
	var parsed []map[string]any
	if err := json.Unmarshal([]byte(metering), &parsed); err != nil {
		t.Fatalf("stored metering not JSON: %v", err)
	}
	if len(parsed) != 1 || parsed[0]["unit"] != "credits" {
		t.Errorf("metering = %s", metering)
	}
}

func TestPruneRemovesOldRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := &Record{RequestID: "old", CredentialID: "a", Model: "m", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &Record{RequestID: "fresh", CredentialID: "a", Model: "m"}
	for _, rec := range []*Record{old, fresh} {
		if err := s.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	n, err := s.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d rows, want 1", n)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM usage_records").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining rows = %d, want 1", count)
	}
}
