package compiler

import (
	"strconv"

	"github.com/mna/embervm/lang/token"
	"github.com/mna/embervm/lang/value"
)

// precedence orders binding strength from loosest to tightest for the Pratt
// expression parser.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is a prefix or infix parse function. canAssign is threaded through
// so that only the outermost expression of an assignment target may consume
// a trailing '='.
type parseFn func(c *funcCompiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Token]parseRule

func init() {
	rules = map[token.Token]parseRule{
		token.LPAREN:  {prefix: (*funcCompiler).grouping, infix: (*funcCompiler).call, precedence: precCall},
		token.MINUS:   {prefix: (*funcCompiler).unary, infix: (*funcCompiler).binary, precedence: precTerm},
		token.PLUS:    {infix: (*funcCompiler).binary, precedence: precTerm},
		token.SLASH:   {infix: (*funcCompiler).binary, precedence: precFactor},
		token.STAR:    {infix: (*funcCompiler).binary, precedence: precFactor},
		token.BANG:    {prefix: (*funcCompiler).unary},
		token.BANG_EQ: {infix: (*funcCompiler).binary, precedence: precEquality},
		token.EQ_EQ:   {infix: (*funcCompiler).binary, precedence: precEquality},
		token.GT:      {infix: (*funcCompiler).binary, precedence: precComparison},
		token.GT_EQ:   {infix: (*funcCompiler).binary, precedence: precComparison},
		token.LT:      {infix: (*funcCompiler).binary, precedence: precComparison},
		token.LT_EQ:   {infix: (*funcCompiler).binary, precedence: precComparison},
		token.IDENT:   {prefix: (*funcCompiler).variable},
		token.STRING:  {prefix: (*funcCompiler).stringLit},
		token.NUMBER:  {prefix: (*funcCompiler).number},
		token.AND:     {infix: (*funcCompiler).and_, precedence: precAnd},
		token.OR:      {infix: (*funcCompiler).or_, precedence: precOr},
		token.FALSE:   {prefix: (*funcCompiler).literal},
		token.TRUE:    {prefix: (*funcCompiler).literal},
		token.NIL:     {prefix: (*funcCompiler).literal},
	}
}

func ruleFor(kind token.Token) parseRule { return rules[kind] }

// declaration parses one top-level or block-level declaration, dispatching
// to a statement if no declaration keyword is seen.
func (c *funcCompiler) declaration() {
	switch {
	case c.p.match(token.VAR):
		c.varDeclaration()
	case c.p.match(token.FUN):
		c.funDeclaration()
	default:
		c.statement()
	}
}

func (c *funcCompiler) varDeclaration() {
	slot, name := c.parseVariable("Expect variable name.")
	if c.p.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(value.NIL)
	}
	c.p.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(slot, name)
}

func (c *funcCompiler) funDeclaration() {
	slot, name := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(name)
	c.defineVariable(slot, name)
}

// function compiles a function's parameter list and body into a fresh
// funcCompiler nested under c, then emits the resulting *value.Function as a
// constant load in c.
func (c *funcCompiler) function(name string) {
	fc := newFuncCompiler(c.p, c, name, 1)

	c.p.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.p.check(token.RPAREN) {
		for {
			fc.fn.Arity++
			if fc.fn.Arity > 255 {
				c.p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			slot, pname := fc.parseVariable("Expect parameter name.")
			fc.defineVariable(slot, pname)
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RPAREN, "Expect ')' after parameters.")
	c.p.consume(token.LBRACE, "Expect '{' before function body.")
	fc.block()

	fn := fc.finish()
	k := c.makeConstant(fn)
	c.emitOperand(value.CONSTANT, k)
}

func (c *funcCompiler) statement() {
	switch {
	case c.p.match(token.PRINT):
		c.printStatement()
	case c.p.match(token.IF):
		c.ifStatement()
	case c.p.match(token.WHILE):
		c.whileStatement()
	case c.p.match(token.FOR):
		c.forStatement()
	case c.p.match(token.RETURN):
		c.returnStatement()
	case c.p.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *funcCompiler) printStatement() {
	c.expression()
	c.p.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(value.PRINT)
}

func (c *funcCompiler) expressionStatement() {
	c.expression()
	c.p.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(value.POP)
}

func (c *funcCompiler) returnStatement() {
	if c.p.match(token.SEMI) {
		c.emitOp(value.NIL)
		c.emitOp(value.RETURN)
		return
	}
	c.expression()
	c.p.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(value.RETURN)
}

func (c *funcCompiler) ifStatement() {
	c.p.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(value.JUMP_IF_FALSE)
	c.emitOp(value.POP)
	c.statement()

	elseJump := c.emitJump(value.JUMP)
	c.patchJump(thenJump)
	c.emitOp(value.POP)

	if c.p.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *funcCompiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.p.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(value.JUMP_IF_FALSE)
	c.emitOp(value.POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(value.POP)
}

// forStatement desugars "for (init; cond; incr) body" into the equivalent
// while-loop form, wrapped in its own scope so a declared init variable does
// not leak.
func (c *funcCompiler) forStatement() {
	c.beginScope()
	c.p.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.p.match(token.SEMI):
		// no initializer
	case c.p.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.p.check(token.SEMI) {
		c.expression()
		c.p.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = c.emitJump(value.JUMP_IF_FALSE)
		c.emitOp(value.POP)
	} else {
		c.p.advance() // consume ';'
	}

	if !c.p.check(token.RPAREN) {
		bodyJump := c.emitJump(value.JUMP)
		incrStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(value.POP)
		c.p.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.p.advance() // consume ')'
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(value.POP)
	}
	c.endScope()
}

func (c *funcCompiler) block() {
	for !c.p.check(token.RBRACE) && !c.p.check(token.EOF) {
		c.declaration()
	}
	c.p.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *funcCompiler) beginScope() { c.scopeDepth++ }

func (c *funcCompiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(value.POP)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *funcCompiler) expression() { c.parsePrecedence(precAssignment) }

func (c *funcCompiler) parsePrecedence(prec precedence) {
	c.p.advance()
	rule := ruleFor(c.p.previous.Kind)
	if rule.prefix == nil {
		c.p.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= ruleFor(c.p.current.Kind).precedence {
		c.p.advance()
		infix := ruleFor(c.p.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.p.match(token.EQ) {
		c.p.error("Invalid assignment target.")
	}
}

func (c *funcCompiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.p.previous.Lexeme, 64)
	if err != nil {
		c.p.error("Invalid number literal.")
		return
	}
	k := c.makeConstant(value.Number(n))
	c.emitOperand(value.CONSTANT, k)
}

func (c *funcCompiler) stringLit(canAssign bool) {
	k := c.makeConstant(value.String(c.p.previous.StringValue()))
	c.emitOperand(value.CONSTANT, k)
}

func (c *funcCompiler) literal(canAssign bool) {
	switch c.p.previous.Kind {
	case token.FALSE:
		c.emitOp(value.FALSE)
	case token.TRUE:
		c.emitOp(value.TRUE)
	case token.NIL:
		c.emitOp(value.NIL)
	}
}

func (c *funcCompiler) grouping(canAssign bool) {
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *funcCompiler) unary(canAssign bool) {
	op := c.p.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.MINUS:
		c.emitOp(value.NEGATE)
	case token.BANG:
		c.emitOp(value.NOT)
	}
}

func (c *funcCompiler) binary(canAssign bool) {
	op := c.p.previous.Kind
	rule := ruleFor(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.PLUS:
		c.emitOp(value.ADD)
	case token.MINUS:
		c.emitOp(value.SUBTRACT)
	case token.STAR:
		c.emitOp(value.MULTIPLY)
	case token.SLASH:
		c.emitOp(value.DIVIDE)
	case token.EQ_EQ:
		c.emitOp(value.EQUAL)
	case token.BANG_EQ:
		c.emitOp(value.EQUAL)
		c.emitOp(value.NOT)
	case token.GT:
		c.emitOp(value.GREATER)
	case token.GT_EQ:
		c.emitOp(value.LESS)
		c.emitOp(value.NOT)
	case token.LT:
		c.emitOp(value.LESS)
	case token.LT_EQ:
		c.emitOp(value.GREATER)
		c.emitOp(value.NOT)
	}
}

func (c *funcCompiler) and_(canAssign bool) {
	endJump := c.emitJump(value.JUMP_IF_FALSE)
	c.emitOp(value.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *funcCompiler) or_(canAssign bool) {
	elseJump := c.emitJump(value.JUMP_IF_FALSE)
	endJump := c.emitJump(value.JUMP)
	c.patchJump(elseJump)
	c.emitOp(value.POP)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *funcCompiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOperand(value.CALL, uint32(argCount))
}

func (c *funcCompiler) argumentList() int {
	count := 0
	if !c.p.check(token.RPAREN) {
		for {
			c.expression()
			if count == 255 {
				c.p.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RPAREN, "Expect ')' after arguments.")
	return count
}

func (c *funcCompiler) variable(canAssign bool) {
	c.namedVariable(c.p.previous.Lexeme, canAssign)
}

func (c *funcCompiler) namedVariable(name string, canAssign bool) {
	getOp, setOp, arg := c.resolveVariable(name)

	if canAssign && c.p.match(token.EQ) {
		c.expression()
		c.emitOperand(setOp, arg)
		return
	}
	c.emitOperand(getOp, arg)
}

func (c *funcCompiler) resolveVariable(name string) (getOp, setOp value.Opcode, arg uint32) {
	if slot, ok := c.resolveLocal(name); ok {
		return value.GET_LOCAL, value.SET_LOCAL, uint32(slot)
	}
	k := c.makeConstant(value.String(name))
	return value.GET_GLOBAL, value.SET_GLOBAL, k
}

// resolveLocal looks up name among c's locals, innermost declaration first.
func (c *funcCompiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name != name {
			continue
		}
		if !l.initialized {
			c.p.error("Can't read local variable in own initializer.")
		}
		return i, true
	}
	return 0, false
}

// parseVariable consumes an identifier token and, inside a local scope,
// declares it immediately; it returns the constant-pool slot to use for
// defineVariable when the variable is global (0 otherwise) along with its
// name.
func (c *funcCompiler) parseVariable(errMsg string) (uint32, string) {
	c.p.consume(token.IDENT, errMsg)
	name := c.p.previous.Lexeme

	if c.scopeDepth == 0 {
		return c.makeConstant(value.String(name)), name
	}
	c.declareLocal(name)
	return 0, name
}

func (c *funcCompiler) declareLocal(name string) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth < c.scopeDepth {
			break
		}
		if l.name == name {
			c.p.error("Already a variable with this name in this scope.")
		}
	}
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth, initialized: false})
}

func (c *funcCompiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].initialized = true
}

func (c *funcCompiler) defineVariable(slot uint32, name string) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOperand(value.DEFINE_GLOBAL, slot)
}
