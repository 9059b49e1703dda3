package display

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommandTree() (*cobra.Command, *cobra.Command) {
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "child", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)
	return root, child
}

func TestShouldOutputJSON(t *testing.T) {
	t.Run("nil command", func(t *testing.T) {
		assert.False(t, ShouldOutputJSON(nil))
	})

	t.Run("global flag unset", func(t *testing.T) {
		_, child := newCommandTree()
		assert.False(t, ShouldOutputJSON(child))
	})

	t.Run("global flag set", func(t *testing.T) {
		root, child := newCommandTree()
		require.NoError(t, root.PersistentFlags().Set("json", "true"))
		assert.True(t, ShouldOutputJSON(child))
	})

	t.Run("local flag overrides", func(t *testing.T) {
		root, child := newCommandTree()
		child.Flags().Bool("json", false, "")
		require.NoError(t, root.PersistentFlags().Set("json", "true"))
		require.NoError(t, child.Flags().Set("json", "false"))
		assert.False(t, ShouldOutputJSON(child))
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"slides": 3}))
	assert.Equal(t, "{\n  \"slides\": 3\n}\n", buf.String())
}

func TestWriteJSON_Compact(t *testing.T) {
	t.Setenv(CompactEnv, "1")
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []string{"a", "b"}))
	assert.Equal(t, "[\"a\",\"b\"]\n", buf.String())
}

func TestWriteJSON_Unmarshalable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal JSON")
}
