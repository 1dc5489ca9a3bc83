package coredb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTIDUnique(t *testing.T) {
	a := NewTID()
	b := NewTID()
	require.NotEqual(t, a, b)
	require.NotEmpty(t, a.String())
}
