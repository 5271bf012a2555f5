package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID_RoundTrip(t *testing.T) {
	id := NewNodeID()
	require.False(t, id.IsZero())

	parsed, err := NewNodeIDFromString(id.String())

	require.NoError(t, err)
	assert.True(t, id.Equals(parsed))
}

func TestNodeID_FromInvalidString(t *testing.T) {
	_, err := NewNodeIDFromString("not-a-uuid")
	assert.Error(t, err)

	_, err = NewNodeIDFromString("")
	assert.Error(t, err)
}

func TestInstanceID_RoundTrip(t *testing.T) {
	id := NewInstanceID()
	require.False(t, id.IsZero())

	parsed, err := NewInstanceIDFromString(id.String())

	require.NoError(t, err)
	assert.True(t, id.Equals(parsed))
}

func TestInstanceID_ZeroValue(t *testing.T) {
	var id InstanceID

	assert.True(t, id.IsZero())
	assert.True(t, id.Equals(InstanceID{}))
}

func TestPosition(t *testing.T) {
	t.Run("valid coordinates", func(t *testing.T) {
		pos, err := NewPosition(12.5, -40)

		require.NoError(t, err)
		assert.Equal(t, 12.5, pos.X())
		assert.Equal(t, -40.0, pos.Y())
	})

	t.Run("non finite coordinates rejected", func(t *testing.T) {
		_, err := NewPosition(math.NaN(), 0)
		assert.Error(t, err)

		_, err = NewPosition(0, math.Inf(1))
		assert.Error(t, err)
	})

	t.Run("translate", func(t *testing.T) {
		pos, err := NewPosition(10, 20)
		require.NoError(t, err)

		moved, err := pos.Translate(5, -5)

		require.NoError(t, err)
		assert.Equal(t, 15.0, moved.X())
		assert.Equal(t, 15.0, moved.Y())
	})
}
