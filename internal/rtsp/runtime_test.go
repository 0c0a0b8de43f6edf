package rtsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMountTable(t *testing.T) *MountTable {
	t.Helper()
	table := NewMountTable()
	require.NoError(t, table.AddFactory("/video", testFactory(t)))
	return table
}

func TestRuntimeLifecycleOrder(t *testing.T) {
	r := NewRuntime("8554", nil)
	assert.Equal(t, StateUnconfigured, r.State())

	require.NoError(t, r.Configure())
	assert.Equal(t, StateConfiguring, r.State())

	require.NoError(t, r.Mount(testMountTable(t)))
	assert.Equal(t, StateMounted, r.State())
}

func TestRuntimeRejectsOutOfOrderCalls(t *testing.T) {
	t.Run("mount before configure", func(t *testing.T) {
		r := NewRuntime("8554", nil)
		assert.Error(t, r.Mount(testMountTable(t)))
		assert.Equal(t, StateUnconfigured, r.State())
	})

	t.Run("attach before mount", func(t *testing.T) {
		r := NewRuntime("8554", nil)
		require.NoError(t, r.Configure())
		assert.Error(t, r.Attach())
		assert.Equal(t, StateConfiguring, r.State())
	})

	t.Run("double configure", func(t *testing.T) {
		r := NewRuntime("8554", nil)
		require.NoError(t, r.Configure())
		assert.Error(t, r.Configure())
	})
}

func TestRuntimeRejectsEmptyMountTable(t *testing.T) {
	r := NewRuntime("8554", nil)
	require.NoError(t, r.Configure())

	assert.Error(t, r.Mount(nil))
	assert.Error(t, r.Mount(NewMountTable()))

	// A failed mount leaves the lifecycle where it was.
	assert.Equal(t, StateConfiguring, r.State())
}

func TestRuntimeHasNoRTCPToggle(t *testing.T) {
	r := NewRuntime("8554", nil)
	assert.False(t, r.SupportsRTCPToggle())
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/video", normalizePath("video"))
	assert.Equal(t, "/video", normalizePath("/video"))
}
