package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubclean/internal/types"
)

func TestValidatePolicyRejectsNegativeKeepLast(t *testing.T) {
	err := ValidatePolicy(t.Context(), types.RetentionPolicy{KeepLastN: -1})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestValidatePolicyRejectsNegativeMinAge(t *testing.T) {
	err := ValidatePolicy(t.Context(), types.RetentionPolicy{MinAgeDays: -5})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestValidatePolicyAcceptsZeroValues(t *testing.T) {
	require.NoError(t, ValidatePolicy(t.Context(), types.RetentionPolicy{}))
}

func TestValidateTargetRequiresNamespace(t *testing.T) {
	require.NoError(t, ValidateTarget(t.Context(), "acme"))
}
