package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssign_AscendingIDOrder(t *testing.T) {
	// Label order in the input must not matter; ids are colored by their
	// sorted rank.
	assigned := Assign([]int{2, 0, 1, 2, 0})
	require.Len(t, assigned, 3)
	assert.Equal(t, "#0000ff", assigned[0])
	assert.Equal(t, "#008000", assigned[1])
	assert.Equal(t, "#ff0000", assigned[2])
}

func TestAssign_NoiseGetsReservedGray(t *testing.T) {
	assigned := Assign([]int{-1, 0, -1})
	assert.Equal(t, NoiseColor, assigned[-1])
	assert.Equal(t, "#0000ff", assigned[0])
}

func TestAssign_WrapsPastPaletteEnd(t *testing.T) {
	labels := make([]int, 12)
	for i := range labels {
		labels[i] = i
	}
	assigned := Assign(labels)
	require.Len(t, assigned, 12)
	assert.Equal(t, assigned[0], assigned[10])
	assert.Equal(t, assigned[1], assigned[11])
}

func TestAssign_NoiseColorNeverInRotation(t *testing.T) {
	labels := make([]int, 25)
	for i := range labels {
		labels[i] = i
	}
	for id, c := range Assign(labels) {
		assert.NotEqual(t, NoiseColor, c, "cluster %d", id)
	}
}

func TestAssign_Deterministic(t *testing.T) {
	labels := []int{5, 3, -1, 9, 3, 5}
	assert.Equal(t, Assign(labels), Assign(labels))
}

func TestAssign_Empty(t *testing.T) {
	assert.Empty(t, Assign(nil))
}
