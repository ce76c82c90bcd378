package merk_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovedb/grovedb/merk"
)

func TestGraphVizRendersEveryNode(t *testing.T) {
	ctx := context.Background()
	m, _ := openTestMerk(t)

	require.NoError(t, m.Apply(ctx, []merk.Op{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
	}))

	var out bytes.Buffer
	require.NoError(t, m.GraphViz(ctx, &out))

	rendered := out.String()
	require.Contains(t, rendered, "digraph hierarchy")
	require.Contains(t, rendered, "a")
	require.Contains(t, rendered, "b")
	require.Contains(t, rendered, "c")
}
