package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordedOp struct {
	op  string
	err error
}

type recordingObserver struct {
	ops []recordedOp
}

func (r *recordingObserver) RecordStoreOperation(op string, err error, d time.Duration) {
	r.ops = append(r.ops, recordedOp{op, err})
}

func TestInstrumentedReportsOperations(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	s := Instrument(newTestStore(t), obs, nil)

	if _, err := s.Commit(ctx, testMeta, []Change{{Path: "Home.md", Data: []byte("home")}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := s.ResolvePage(ctx, "Missing", nil, false, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Commit(ctx, testMeta, nil); !errors.Is(err, ErrEmptyCommit) {
		t.Fatalf("expected ErrEmptyCommit, got %v", err)
	}

	want := []recordedOp{
		{"commit", nil},
		{"resolve_page", nil},
		{"commit", ErrEmptyCommit},
	}
	if len(obs.ops) != len(want) {
		t.Fatalf("expected %d ops, got %+v", len(want), obs.ops)
	}
	for i, w := range want {
		if obs.ops[i].op != w.op || !errors.Is(obs.ops[i].err, w.err) {
			t.Errorf("op %d: got %+v, want %+v", i, obs.ops[i], w)
		}
	}
}
