package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocationOverlapsDetectsByteRangeIntersection(t *testing.T) {
	a := MemoryLocation{Offset: 0, Size: 32}
	b := MemoryLocation{Offset: 16, Size: 32}
	c := MemoryLocation{Offset: 32, Size: 32}

	assert.True(t, a.Overlaps(b), "0..32 and 16..48 share bytes 16..32")
	assert.False(t, a.Overlaps(c), "0..32 and 32..64 are adjacent but disjoint")
}

func TestMemoryLocationFullAlwaysOverlaps(t *testing.T) {
	concrete := MemoryLocation{Offset: 1000, Size: 32}
	assert.True(t, FullMemoryAccess.Overlaps(concrete))
	assert.True(t, concrete.Overlaps(FullMemoryAccess))
	assert.True(t, FullMemoryAccess.Overlaps(FullMemoryAccess))
}

func TestMemoryLocationEmptyNeverOverlaps(t *testing.T) {
	concrete := MemoryLocation{Offset: 0, Size: 32}
	assert.False(t, EmptyMemoryAccess.Overlaps(concrete))
	assert.False(t, concrete.Overlaps(EmptyMemoryAccess))
}

func TestMemoryLocationIsFullOnlyForTheSentinel(t *testing.T) {
	assert.True(t, FullMemoryAccess.IsFull())
	assert.False(t, EmptyMemoryAccess.IsFull())
	assert.False(t, MemoryLocation{Offset: 0, Size: 32}.IsFull())
}

func TestMemoryLocationIsEmptyOnlyForTheSentinel(t *testing.T) {
	assert.True(t, EmptyMemoryAccess.IsEmpty())
	assert.False(t, FullMemoryAccess.IsEmpty())
	assert.False(t, MemoryLocation{Offset: 0, Size: 32}.IsEmpty())
}

func TestAllocatorConcretizePacksCallArgScratchBeforePersistentAllocations(t *testing.T) {
	a := NewAllocator()
	persistent := a.Reserve(32, false)
	callArg := a.Reserve(64, true)
	a.Base = 100
	a.Concretize()

	callArgOffset, ok := a.Offset(callArg.ID)
	require.True(t, ok)
	assert.Equal(t, int64(100), callArgOffset)

	persistentOffset, ok := a.Offset(persistent.ID)
	require.True(t, ok)
	assert.Equal(t, int64(164), persistentOffset)
}

func TestAllocatorOffsetBeforeConcretizeIsNotOK(t *testing.T) {
	a := NewAllocator()
	alloc := a.Reserve(32, false)
	_, ok := a.Offset(alloc.ID)
	assert.False(t, ok)

	_, ok = a.Offset(alloc.ID + 999)
	assert.False(t, ok)
}

func TestAllocatorTotalSizeSumsAllReservations(t *testing.T) {
	a := NewAllocator()
	a.Reserve(32, false)
	a.Reserve(64, true)
	assert.Equal(t, int64(96), a.TotalSize())
}
