package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRingBuffer_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		rb, err := NewRingBuffer[int](c)
		assert.Nil(t, rb)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	}
}

func TestRingBuffer_PushBelowCapacity(t *testing.T) {
	rb, err := NewRingBuffer[int](4)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		assert.False(t, rb.Push(i))
	}
	assert.Equal(t, []int{1, 2, 3}, rb.GetAll())
	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, 4, rb.Cap())
}

func TestRingBuffer_EvictsOldest(t *testing.T) {
	rb, err := NewRingBuffer[int](3)
	require.NoError(t, err)

	evictions := 0
	for i := 1; i <= 7; i++ {
		if rb.Push(i) {
			evictions++
		}
	}
	assert.Equal(t, 4, evictions)
	assert.Equal(t, []int{5, 6, 7}, rb.GetAll())
}

func TestRingBuffer_GetAllIsCopy(t *testing.T) {
	rb, err := NewRingBuffer[int](2)
	require.NoError(t, err)
	rb.Push(1)

	got := rb.GetAll()
	got[0] = 99
	assert.Equal(t, []int{1}, rb.GetAll())
}

func TestRingBuffer_Reset(t *testing.T) {
	rb, err := NewRingBuffer[string](2)
	require.NoError(t, err)
	rb.Push("a")
	rb.Push("b")
	rb.Push("c")

	rb.Reset()
	assert.Equal(t, 0, rb.Len())
	assert.Empty(t, rb.GetAll())

	rb.Push("d")
	assert.Equal(t, []string{"d"}, rb.GetAll())
}
