package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDisabledTelemetryIsSafe(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	// None of these may panic on a disabled instance.
	tel.RecordDownload("success", time.Second)
	tel.IncrementActiveDownloads()
	tel.DecrementActiveDownloads()
	tel.RecordPersistOutcome("chain", "saved")
	tel.RecordRecording("authoritative")
	tel.RecordClientOperation("backend", "track", "error")
	tel.RecordDBOperation("get_history", "success", time.Millisecond)

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
}

func TestDisabledTelemetryRunsInstrumentedFuncs(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var downloads, clientOps int

	if err := tel.InstrumentDownload(context.Background(), "note", func(ctx context.Context) error {
		downloads++

		return nil
	}); err != nil {
		t.Errorf("InstrumentDownload returned error: %v", err)
	}

	if err := tel.InstrumentClientOperation(context.Background(), "supabase", "list_documents", func(ctx context.Context) error {
		clientOps++

		return nil
	}); err != nil {
		t.Errorf("InstrumentClientOperation returned error: %v", err)
	}

	if downloads != 1 || clientOps != 1 {
		t.Errorf("instrumented funcs ran %d and %d times, want 1 and 1", downloads, clientOps)
	}
}

func TestNilTelemetryRunsInstrumentedFunc(t *testing.T) {
	var tel *Telemetry

	want := errors.New("wrapped failure")

	ran := false

	err := tel.InstrumentDBOperation(context.Background(), "advance_count", func(ctx context.Context) error {
		ran = true

		return want
	})

	if !ran {
		t.Fatal("instrumented function did not run")
	}

	if !errors.Is(err, want) {
		t.Errorf("error not passed through: %v", err)
	}

	if err := tel.InstrumentDownload(context.Background(), "note", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Errorf("InstrumentDownload on nil telemetry returned error: %v", err)
	}
}
