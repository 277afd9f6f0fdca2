// Package compiler implements Ember's single-pass compiler: a recursive-
// descent statement parser combined with a Pratt expression parser that
// emits bytecode directly into value.Chunk as it parses, with no
// intermediate AST. It also maintains the compile-time symbol table for
// locals and lexical scopes, and provides a debug disassembler for
// value.Chunk.
package compiler

import (
	"fmt"

	"github.com/mna/embervm/lang/scanner"
	"github.com/mna/embervm/lang/token"
	"github.com/mna/embervm/lang/value"
)

// CompileError is returned by Compile when the source fails to compile. It
// is always a single, first-encountered error: the compiler does not
// attempt multi-error recovery.
type CompileError struct {
	Line  int
	Where string // the offending lexeme, or "end" at EOF
	Msg   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error at %s: %s", e.Line, e.Where, e.Msg)
}

// abortCompile is panicked with to unwind out of arbitrarily deep recursive-
// descent parsing as soon as the first error is recorded, implementing the
// "first error aborts compilation" contract without threading an error
// return through every parse function.
type abortCompile struct{}

// Compile compiles source into the top-level script Function. The returned
// error, if non-nil, is a *CompileError.
func Compile(source string) (fn *value.Function, err error) {
	p := &parser{}
	p.sc.Init(source)

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortCompile); ok {
				err = p.err
				return
			}
			panic(r)
		}
	}()

	p.advance()
	c := newFuncCompiler(p, nil, "", 0)
	for !p.check(token.EOF) {
		c.declaration()
	}
	p.consume(token.EOF, "Expect end of expression.")
	return c.finish(), nil
}

// parser holds scanning state shared by every nested function compiler.
type parser struct {
	sc       scanner.Scanner
	previous scanner.Token
	current  scanner.Token
	err      *CompileError
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.sc.Next()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Message)
	}
}

func (p *parser) check(kind token.Token) bool { return p.current.Kind == kind }

func (p *parser) match(kind token.Token) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(kind token.Token, msg string) {
	if p.current.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *parser) errorAt(tok scanner.Token, msg string) {
	if p.err != nil {
		// first error wins; keep unwinding.
		panic(abortCompile{})
	}
	where := fmt.Sprintf("'%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = "end"
	}
	p.err = &CompileError{Line: tok.Line, Where: where, Msg: msg}
	panic(abortCompile{})
}

// local is a compile-time record of a block-scoped variable.
type local struct {
	name        string
	depth       int
	initialized bool
}

// funcCompiler holds the compile-time Environment for one function: its
// locals, current scope depth, and the value.Function/Chunk being built. A
// stack of funcCompilers is threaded through "enclosing" as nested function
// declarations are compiled.
type funcCompiler struct {
	p          *parser
	enclosing  *funcCompiler
	fn         *value.Function
	locals     []local
	scopeDepth int
}

func newFuncCompiler(p *parser, enclosing *funcCompiler, name string, scopeDepth int) *funcCompiler {
	c := &funcCompiler{
		p:          p,
		enclosing:  enclosing,
		fn:         &value.Function{Name: name},
		scopeDepth: scopeDepth,
	}
	// Slot 0 of every call frame holds the function being called; reserve it
	// here so compile-time local slot numbers match the runtime layout.
	c.locals = append(c.locals, local{name: "", depth: 0, initialized: true})
	return c
}

// finish emits the implicit trailing "return nil" and returns the compiled
// function. It must be called exactly once, after the function's body (or
// the script's top-level declarations) has been fully parsed.
func (c *funcCompiler) finish() *value.Function {
	c.emitOp(value.NIL)
	c.emitOp(value.RETURN)
	return c.fn
}

func (c *funcCompiler) chunk() *value.Chunk { return &c.fn.Chunk }

func (c *funcCompiler) line() int { return c.p.previous.Line }

func (c *funcCompiler) emitOp(op value.Opcode) int {
	return c.chunk().WriteOp(op, c.line())
}

func (c *funcCompiler) emitOperand(op value.Opcode, arg uint32) int {
	return c.chunk().WriteOperand(op, arg, c.line())
}

func (c *funcCompiler) emitJump(op value.Opcode) int {
	return c.chunk().EmitJump(op, c.line())
}

func (c *funcCompiler) patchJump(offset int) {
	if err := c.chunk().PatchJump(offset); err != nil {
		c.p.error(err.Error())
	}
}

func (c *funcCompiler) emitLoop(start int) {
	if err := c.chunk().EmitLoop(start, c.line()); err != nil {
		c.p.error(err.Error())
	}
}

func (c *funcCompiler) makeConstant(v value.Value) uint32 {
	return uint32(c.chunk().AddConstant(v))
}
