package compiler

import (
	"fmt"
	"io"

	"github.com/mna/embervm/lang/value"
)

// Disassemble writes a human-readable listing of chunk to w, one instruction
// per line, prefixed with name as a header. It is a debugging aid only; the
// VM never calls it.
func Disassemble(w io.Writer, chunk *value.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for off := 0; off < len(chunk.Code); {
		off = disassembleInstruction(w, chunk, off)
	}
}

func disassembleInstruction(w io.Writer, chunk *value.Chunk, offset int) int {
	op := value.Opcode(chunk.Code[offset])
	line := chunk.LineAt(offset)

	fmt.Fprintf(w, "%04d  %d  %s", offset, line, op)

	switch {
	case value.IsJumpOp(op):
		dist, next := value.ReadJumpOperand(chunk.Code, offset+1)
		target := next + int(dist)
		if op == value.JUMP_BACK {
			target = next - int(dist)
		}
		fmt.Fprintf(w, " %d -> %d\n", offset, target)
		return next
	case value.HasOperand(op):
		arg, next := value.ReadVarint(chunk.Code, offset+1)
		switch op {
		case value.CONSTANT, value.DEFINE_GLOBAL, value.GET_GLOBAL, value.SET_GLOBAL:
			if int(arg) < len(chunk.Constants) {
				fmt.Fprintf(w, " %d '%s'\n", arg, chunk.Constants[arg].String())
			} else {
				fmt.Fprintf(w, " %d\n", arg)
			}
		default:
			fmt.Fprintf(w, " %d\n", arg)
		}
		return next
	default:
		fmt.Fprintln(w)
		return offset + 1
	}
}
