package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

// FaultyTxRunner wraps a real runner and injects failures around the body.
// FailAfterBody is returned from inside the transaction, so the inner runner
// rolls back work the body already did.
type FaultyTxRunner struct {
	Inner aggregates.TxRunner

	FailBegin     error
	FailAfterBody error

	mu        sync.Mutex
	Begins    int
	Commits   int
	Rollbacks int
}

var _ aggregates.TxRunner = (*FaultyTxRunner)(nil)

func (r *FaultyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.count(&r.Begins)
	if r.FailBegin != nil {
		return r.FailBegin
	}
	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				r.count(&r.Rollbacks)
				return err
			}
		}
		if r.FailAfterBody != nil {
			r.count(&r.Rollbacks)
			return r.FailAfterBody
		}
		r.count(&r.Commits)
		return nil
	}
	if r.Inner == nil {
		return body(dbctx.Context{Ctx: ctx})
	}
	return r.Inner.InTx(ctx, body)
}

func (r *FaultyTxRunner) Counts() (begins, commits, rollbacks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Begins, r.Commits, r.Rollbacks
}

func (r *FaultyTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
