package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

func TestFaultyTxRunnerCommitsWithoutFaults(t *testing.T) {
	r := &FaultyTxRunner{}
	ran := false
	if err := r.InTx(context.Background(), func(dbctx.Context) error { ran = true; return nil }); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	b, c, rb := r.Counts()
	if !ran || b != 1 || c != 1 || rb != 0 {
		t.Fatalf("ran=%v begins=%d commits=%d rollbacks=%d", ran, b, c, rb)
	}
}

func TestFaultyTxRunnerFailAfterBody(t *testing.T) {
	boom := errors.New("commit lost")
	r := &FaultyTxRunner{FailAfterBody: boom}
	err := r.InTx(context.Background(), func(dbctx.Context) error { return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("want injected error, got %v", err)
	}
	if _, c, rb := r.Counts(); c != 0 || rb != 1 {
		t.Fatalf("commits=%d rollbacks=%d", c, rb)
	}
}

func TestFaultyTxRunnerFailBeginSkipsBody(t *testing.T) {
	r := &FaultyTxRunner{FailBegin: errors.New("no conn")}
	ran := false
	_ = r.InTx(context.Background(), func(dbctx.Context) error { ran = true; return nil })
	if ran {
		t.Fatalf("body should not run when begin fails")
	}
}

func TestHooksRecorderLastStatus(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("op.a", "success", time.Millisecond)
	h.ObserveOperation("op.a", "conflict", time.Millisecond)
	h.IncConflict("op.a")
	if got := h.LastStatus("op.a"); got != "conflict" {
		t.Fatalf("last status: %q", got)
	}
	if got := h.LastStatus("op.b"); got != "" {
		t.Fatalf("unknown op status: %q", got)
	}
	if len(h.Conflicts) != 1 {
		t.Fatalf("conflicts: %v", h.Conflicts)
	}
}
