package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxOperator ctxKey = iota

func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, ctxOperator, operator)
}

// Operator returns the authenticated operator identity from context.
func Operator(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxOperator).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("operator not in context")
}
