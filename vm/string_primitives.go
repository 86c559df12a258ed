package vm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// String builtin methods
// ---------------------------------------------------------------------------

// registerStringPrimitives registers the builtin methods dispatched on
// string receivers. Called from NewVM.
func (vm *VM) registerStringPrimitives() {
	// len - number of bytes in the string
	vm.registerNative(vm.stringMethods, "len", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		return FromFloat64(float64(len(vm.arena.GetString(recv)))), nil
	})

	// split - split around a separator, returning an array of strings
	vm.registerNative(vm.stringMethods, "split", 1, func(vm *VM, recv Value, args []Value) (Value, error) {
		if !args[0].IsString() {
			return Nil, &RuntimeError{Kind: TypeMismatch, Message: fmt.Sprintf("split separator must be a String, got %s", args[0].TypeName())}
		}
		s := vm.arena.GetString(recv)
		sep := vm.arena.GetString(args[0])
		parts := strings.Split(s, sep)
		elements := make([]Value, len(parts))
		for i, part := range parts {
			elements[i] = vm.arena.InternString(part)
		}
		return vm.arena.NewArray(elements), nil
	})

	// parseNumber - parse the string as a number
	vm.registerNative(vm.stringMethods, "parseNumber", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		s := strings.TrimSpace(vm.arena.GetString(recv))
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Nil, &RuntimeError{Kind: TypeMismatch, Message: fmt.Sprintf("cannot parse %q as a number", s)}
		}
		return FromFloat64(n), nil
	})

	// readFile - read the file named by the receiver as UTF-8 text
	vm.registerNative(vm.stringMethods, "readFile", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		path := vm.arena.GetString(recv)
		data, err := os.ReadFile(path)
		if err != nil {
			return Nil, &RuntimeError{Kind: IOError, Message: fmt.Sprintf("cannot read %s: %v", path, err)}
		}
		if !utf8.Valid(data) {
			return Nil, &RuntimeError{Kind: IOError, Message: fmt.Sprintf("%s is not valid UTF-8", path)}
		}
		return vm.arena.InternString(string(data)), nil
	})

	// toString - identity on strings
	vm.registerNative(vm.stringMethods, "toString", 0, func(_ *VM, recv Value, _ []Value) (Value, error) {
		return recv, nil
	})
}
