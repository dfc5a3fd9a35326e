package stack_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrewwormald/execution/internal/stack"
)

func TestTraceOmitsInternalFrames(t *testing.T) {
	trace := stack.Trace(0)

	require.NotContains(t, trace, "github.com/andrewwormald/execution")
	require.NotContains(t, trace, "goroutine")
}

func TestTraceDepthSkipsFrames(t *testing.T) {
	shallow := stack.Trace(0)
	deep := stack.Trace(1)

	require.NotEqual(t, "", shallow)
	require.Less(t, strings.Count(deep, "\n"), strings.Count(shallow, "\n"))
}
