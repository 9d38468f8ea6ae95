package errcode

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	assert.Equal(t, Ok, Of(nil))
	assert.Equal(t, Internal, Of(errors.New("boom")))

	err := Newf(IllegalDataType, "cannot compare %s with %s", "String", "UInt64")
	require.Error(t, err)
	assert.Equal(t, IllegalDataType, Of(err))
	assert.Equal(t, "cannot compare String with UInt64", err.Error())

	wrapped := errors.Wrap(err, "fold filter")
	assert.Equal(t, IllegalDataType, Of(wrapped))
	assert.Equal(t, "fold filter: cannot compare String with UInt64", wrapped.Error())
}

func TestAssertionFailed(t *testing.T) {
	err := AssertionFailedf("column #%d is not produced by scan", 3)
	assert.Equal(t, Internal, Of(err))
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, BadArguments))
	assert.Equal(t, BadArguments, Of(Wrap(errors.New("x"), BadArguments)))
}
