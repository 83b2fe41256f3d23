package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectSetAddAndHas(t *testing.T) {
	s := NewEffectSet(EffectMemory, EffectStorage)
	assert.True(t, s.Has(EffectMemory))
	assert.True(t, s.Has(EffectStorage))
	assert.False(t, s.Has(EffectBalance))
}

func TestEffectSetAllSubsumesEverything(t *testing.T) {
	s := NewEffectSet(EffectAll)
	assert.True(t, s.Has(EffectMemory))
	assert.True(t, s.Has(EffectBalance))
	assert.True(t, s.Has(EffectReturndata))
}

func TestEffectSetIntersectsAndEmpty(t *testing.T) {
	mem := NewEffectSet(EffectMemory)
	storage := NewEffectSet(EffectStorage)
	assert.False(t, mem.Intersects(storage))
	assert.True(t, mem.Intersects(mem))
	assert.True(t, EffectSet(0).IsEmpty())
	assert.False(t, mem.IsEmpty())
}

func TestConflictsDetectsWriteWriteAndWriteRead(t *testing.T) {
	store := &Instruction{Opcode: "mstore"}
	load := &Instruction{Opcode: "mload"}
	otherStore := &Instruction{Opcode: "mstore"}
	sstoreInst := &Instruction{Opcode: "sstore"}

	assert.True(t, Conflicts(store, load), "a memory write conflicts with a later memory read")
	assert.True(t, Conflicts(store, otherStore), "two memory writes conflict")
	assert.False(t, Conflicts(store, sstoreInst), "a memory write does not conflict with a storage write")
}

func TestConflictsTreatsCallsAsTouchingEverything(t *testing.T) {
	call := &Instruction{Opcode: "call"}
	load := &Instruction{Opcode: "sload"}
	assert.True(t, Conflicts(call, load), "a call's EffectAll must conflict with any other effectful instruction")
}

func TestReadWriteEffectsUnknownOpcodeIsEmpty(t *testing.T) {
	assert.Equal(t, EffectSet(0), ReadEffects("add"))
	assert.Equal(t, EffectSet(0), WriteEffects("add"))
}
