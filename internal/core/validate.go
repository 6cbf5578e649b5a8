package core

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"hubclean/internal/types"
)

// ValidatePolicy rejects malformed retention parameters before a run starts.
// The evaluator and processor assume any policy they receive already passed
// this check and never clamp values themselves.
func ValidatePolicy(ctx context.Context, policy types.RetentionPolicy) error {
	if policy.KeepLastN < 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("keep-last must not be negative")
	}
	if policy.MinAgeDays < 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("min-age-days must not be negative")
	}
	return nil
}

func ValidateTarget(ctx context.Context, namespace string) error {
	assert.NotEmpty(ctx, namespace, "namespace must be set")
	if namespace == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("namespace is empty")
	}
	return nil
}
