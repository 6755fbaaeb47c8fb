package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeAndMessageSurviveWrapping(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := fmt.Errorf("lookup: %w", Wrap(CodeFetch, "UV backend unavailable", cause))

	require.True(t, IsCode(err, CodeFetch))
	require.Equal(t, CodeFetch, CodeOf(err))
	require.Equal(t, "UV backend unavailable", MessageOf(err))
	require.ErrorIs(t, err, cause)
}

func TestPlainErrors(t *testing.T) {
	err := stderrors.New("boom")
	require.Empty(t, CodeOf(err))
	require.Equal(t, "boom", MessageOf(err))
	require.Empty(t, MessageOf(nil))
	require.False(t, IsCode(err, CodeNotFound))
}
