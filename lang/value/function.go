package value

import "fmt"

// Function is a user-defined function: its name, declared arity, and the
// bytecode chunk compiled from its body. The top-level script is itself
// represented as a Function with an empty name.
type Function struct {
	Name  string
	Arity int
	Chunk Chunk
}

var _ Value = (*Function)(nil)

func (fn *Function) String() string {
	return fmt.Sprintf("<fn %s>", fn.Name)
}

func (*Function) Type() string { return "function" }

// NativeFunction is a built-in function implemented in Go. It receives the
// slice of arguments passed at the call site and returns the call's result.
type NativeFunction struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

var _ Value = (*NativeFunction)(nil)

func (*NativeFunction) String() string { return "<native fn>" }
func (*NativeFunction) Type() string   { return "native function" }
