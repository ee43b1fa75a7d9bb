package verification

import (
	"context"

	"github.com/google/uuid"
)

type resultKey struct{}

type scopedResult struct {
	userID uuid.UUID
	result Result
}

// WithResult attaches an already evaluated result for userID to ctx
func WithResult(ctx context.Context, userID uuid.UUID, result Result) context.Context {
	return context.WithValue(ctx, resultKey{}, scopedResult{userID: userID, result: result})
}

// ResultFromContext returns the result attached for userID, if any. A result
// attached for another user is ignored.
func ResultFromContext(ctx context.Context, userID uuid.UUID) (Result, bool) {
	scoped, ok := ctx.Value(resultKey{}).(scopedResult)
	if !ok || scoped.userID != userID {
		return Result{}, false
	}
	return scoped.result, true
}
