package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context and, inside a unit of work, the open
// transaction. Repos fall back to their own handle when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// From wraps a bare context with no transaction.
func From(ctx context.Context) Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return Context{Ctx: ctx}
}
