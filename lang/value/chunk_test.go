package value_test

import (
	"testing"

	"github.com/mna/embervm/lang/value"
	"github.com/stretchr/testify/require"
)

func TestChunkWriteAndLines(t *testing.T) {
	var c value.Chunk
	c.WriteOp(value.NIL, 1)
	k := c.AddConstant(value.Number(42))
	c.WriteOperand(value.CONSTANT, uint32(k), 2)
	c.WriteOp(value.RETURN, 2)

	require.Equal(t, 1, c.LineAt(0))
	require.Equal(t, 2, c.LineAt(1))
	require.Equal(t, value.Number(42), c.Constants[k])
}

func TestChunkPatchJump(t *testing.T) {
	var c value.Chunk
	jumpOff := c.EmitJump(value.JUMP_IF_FALSE, 1)
	c.WriteOp(value.POP, 1)
	c.WriteOp(value.NIL, 1)
	require.NoError(t, c.PatchJump(jumpOff))

	dist, _ := value.ReadJumpOperand(c.Code, jumpOff+1)
	require.Equal(t, uint32(2), dist)
}

func TestChunkEmitLoop(t *testing.T) {
	var c value.Chunk
	start := c.WriteOp(value.NIL, 1)
	c.WriteOp(value.POP, 1)
	require.NoError(t, c.EmitLoop(start, 1))

	loopOff := len(c.Code) - 3
	dist, _ := value.ReadJumpOperand(c.Code, loopOff+1)
	require.Equal(t, uint32(loopOff+3-start), dist)
}

func TestChunkAddConstantNoDedup(t *testing.T) {
	var c value.Chunk
	i1 := c.AddConstant(value.Number(1))
	i2 := c.AddConstant(value.Number(1))
	require.NotEqual(t, i1, i2)
}

func TestReadVarintRoundTrip(t *testing.T) {
	var c value.Chunk
	c.WriteOperand(value.GET_LOCAL, 300, 1)
	arg, next := value.ReadVarint(c.Code, 1)
	require.Equal(t, uint32(300), arg)
	require.Equal(t, len(c.Code), next)
}
