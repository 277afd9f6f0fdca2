// Package vm implements the stack-based virtual machine that executes
// bytecode chunks produced by the compiler package.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/dolthub/swiss"

	"github.com/mna/embervm/lang/value"
)

// defaultMaxFrames and defaultStackPerFrame match the reference bound named
// in the language specification (256 slots per frame, 64 frames); New uses
// them unless overridden via WithLimits.
const (
	defaultMaxFrames     = 64
	defaultStackPerFrame = 256
)

// frame is one call-frame activation record: the function being executed,
// its instruction pointer, and the base offset into the shared operand
// stack where the frame's local slot 0 lives.
type frame struct {
	fn        *value.Function
	ip        int
	frameBase int
}

// RuntimeError is returned by Run when bytecode execution fails. It carries
// the triggering message plus a top-down stack trace of the frames active
// at the point of failure.
type RuntimeError struct {
	Msg   string
	Trace []string
}

func (e *RuntimeError) Error() string {
	s := e.Msg
	for _, l := range e.Trace {
		s += "\n" + l
	}
	return s
}

// VM holds all state for one program execution: the operand stack, the
// call-frame stack, and the globals table. A VM is not reentrant across
// concurrent goroutines and is meant to be used for a single Run (file
// mode) or reused across successive REPL inputs (globals persist between
// calls).
type VM struct {
	stack  []value.Value
	frames []frame

	globals *swiss.Map[string, value.Value]

	maxFrames     int
	stackPerFrame int

	Stdout io.Writer
	Stderr io.Writer
}

// Option configures a VM constructed by New.
type Option func(*VM)

// WithLimits overrides the default call-frame depth and operand stack
// sizing; either may be zero to keep the default. The frame depth is enforced
// (exceeding it is a "Stack overflow." runtime error); stackPerFrame only sets
// the initial capacity of the operand stack, which grows as needed and has no
// enforced upper bound.
func WithLimits(maxFrames, stackPerFrame int) Option {
	return func(vm *VM) {
		if maxFrames > 0 {
			vm.maxFrames = maxFrames
		}
		if stackPerFrame > 0 {
			vm.stackPerFrame = stackPerFrame
		}
	}
}

// New constructs a VM with stdout/stderr directed to os.Stdout/os.Stderr and
// the standard native registrations installed.
func New(opts ...Option) *VM {
	vm := &VM{
		globals:       swiss.NewMap[string, value.Value](32),
		maxFrames:     defaultMaxFrames,
		stackPerFrame: defaultStackPerFrame,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.stack = make([]value.Value, 0, vm.stackPerFrame)
	registerNatives(vm)
	return vm
}

// DefineGlobal binds name to v in the VM's global table, overwriting any
// existing binding. It is exposed so hosts can seed additional natives
// beyond the built-in set.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	vm.globals.Put(name, v)
}

// Run executes fn as the program's top-level script. It returns a
// *RuntimeError if execution fails; a nil error means the script ran to
// completion.
func (vm *VM) Run(fn *value.Function) error {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.push(fn)
	vm.frames = append(vm.frames, frame{fn: fn, ip: 0, frameBase: 0})
	return vm.run()
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) run() error {
	for {
		f := &vm.frames[len(vm.frames)-1]
		code := f.fn.Chunk.Code
		op := value.Opcode(code[f.ip])
		f.ip++

		switch op {
		case value.NOP:
			// no-op

		case value.CONSTANT:
			k, next := value.ReadVarint(code, f.ip)
			f.ip = next
			vm.push(f.fn.Chunk.Constants[k])

		case value.NIL:
			vm.push(value.Nil)
		case value.TRUE:
			vm.push(value.True)
		case value.FALSE:
			vm.push(value.False)
		case value.POP:
			vm.pop()

		case value.NEGATE:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				return vm.runtimeError(f, "Operand must be a number.")
			}
			vm.pop()
			vm.push(-n)

		case value.NOT:
			vm.push(value.Bool(value.IsFalsy(vm.pop())))

		case value.ADD:
			b, a := vm.pop(), vm.pop()
			switch av := a.(type) {
			case value.Number:
				bv, ok := b.(value.Number)
				if !ok {
					return vm.runtimeError(f, "Operands must be two numbers or two strings.")
				}
				vm.push(av + bv)
			case value.String:
				bv, ok := b.(value.String)
				if !ok {
					return vm.runtimeError(f, "Operands must be two numbers or two strings.")
				}
				vm.push(av + bv)
			default:
				return vm.runtimeError(f, "Operands must be two numbers or two strings.")
			}

		case value.SUBTRACT, value.MULTIPLY, value.DIVIDE, value.GREATER, value.LESS:
			b, ok1 := vm.peek(0).(value.Number)
			a, ok2 := vm.peek(1).(value.Number)
			if !ok1 || !ok2 {
				return vm.runtimeError(f, "Operands must be numbers.")
			}
			vm.pop()
			vm.pop()
			switch op {
			case value.SUBTRACT:
				vm.push(a - b)
			case value.MULTIPLY:
				vm.push(a * b)
			case value.DIVIDE:
				vm.push(a / b)
			case value.GREATER:
				vm.push(value.Bool(a > b))
			case value.LESS:
				vm.push(value.Bool(a < b))
			}

		case value.EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))

		case value.PRINT:
			fmt.Fprintln(vm.Stdout, vm.pop().String())

		case value.DEFINE_GLOBAL:
			k, next := value.ReadVarint(code, f.ip)
			f.ip = next
			name := f.fn.Chunk.Constants[k].(value.String)
			vm.globals.Put(string(name), vm.peek(0))
			vm.pop()

		case value.GET_GLOBAL:
			k, next := value.ReadVarint(code, f.ip)
			f.ip = next
			name := f.fn.Chunk.Constants[k].(value.String)
			v, ok := vm.globals.Get(string(name))
			if !ok {
				return vm.runtimeError(f, fmt.Sprintf("Undefined variable '%s'.", name))
			}
			vm.push(v)

		case value.SET_GLOBAL:
			k, next := value.ReadVarint(code, f.ip)
			f.ip = next
			name := f.fn.Chunk.Constants[k].(value.String)
			if _, ok := vm.globals.Get(string(name)); !ok {
				return vm.runtimeError(f, fmt.Sprintf("Undefined variable '%s'.", name))
			}
			vm.globals.Put(string(name), vm.peek(0))

		case value.GET_LOCAL:
			slot, next := value.ReadVarint(code, f.ip)
			f.ip = next
			vm.push(vm.stack[f.frameBase+int(slot)])

		case value.SET_LOCAL:
			slot, next := value.ReadVarint(code, f.ip)
			f.ip = next
			vm.stack[f.frameBase+int(slot)] = vm.peek(0)

		case value.JUMP_IF_FALSE:
			dist, next := value.ReadJumpOperand(code, f.ip)
			f.ip = next
			if value.IsFalsy(vm.peek(0)) {
				f.ip += int(dist)
			}

		case value.JUMP:
			dist, next := value.ReadJumpOperand(code, f.ip)
			f.ip = next + int(dist)

		case value.JUMP_BACK:
			dist, next := value.ReadJumpOperand(code, f.ip)
			f.ip = next - int(dist)

		case value.CALL:
			argc, next := value.ReadVarint(code, f.ip)
			f.ip = next
			if err := vm.call(int(argc)); err != nil {
				return err
			}

		case value.RETURN:
			result := vm.pop()
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.stack = vm.stack[:f.frameBase]
			vm.push(result)
		}
	}
}

// call dispatches a Call(argc) instruction: callee sits argc+1 slots below
// the current stack top (at index len-1-argc), with the argc arguments
// above it.
func (vm *VM) call(argc int) error {
	callee := vm.peek(argc)
	switch fn := callee.(type) {
	case *value.Function:
		if fn.Arity != argc {
			f := &vm.frames[len(vm.frames)-1]
			return vm.runtimeError(f, fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity, argc))
		}
		if len(vm.frames) >= vm.maxFrames {
			f := &vm.frames[len(vm.frames)-1]
			return vm.runtimeError(f, "Stack overflow.")
		}
		vm.frames = append(vm.frames, frame{fn: fn, ip: 0, frameBase: len(vm.stack) - 1 - argc})
		return nil

	case *value.NativeFunction:
		base := len(vm.stack) - 1 - argc
		args := append([]value.Value(nil), vm.stack[base+1:]...)
		result, err := fn.Fn(args)
		vm.stack = vm.stack[:base]
		if err != nil {
			f := &vm.frames[len(vm.frames)-1]
			return vm.runtimeError(f, err.Error())
		}
		vm.push(result)
		return nil

	default:
		f := &vm.frames[len(vm.frames)-1]
		return vm.runtimeError(f, "Can only call functions and classes.")
	}
}

// runtimeError builds a RuntimeError carrying a top-down stack trace of
// every active frame at the point of failure.
func (vm *VM) runtimeError(at *frame, msg string) error {
	trace := make([]string, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := vm.frames[i]
		ip := fr.ip
		if &vm.frames[i] == at && ip > 0 {
			ip--
		}
		line := fr.fn.Chunk.LineAt(ip)
		name := fr.fn.Name
		if name == "" {
			name = "script"
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	return &RuntimeError{Msg: msg, Trace: trace}
}
