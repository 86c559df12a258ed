package vm

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Array builtin methods
// ---------------------------------------------------------------------------

// registerArrayPrimitives registers the builtin methods dispatched on
// array receivers. Called from NewVM.
func (vm *VM) registerArrayPrimitives() {
	// len - number of elements
	vm.registerNative(vm.arrayMethods, "len", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		return FromFloat64(float64(len(vm.arena.GetArray(recv).Elements))), nil
	})

	// push - append one element in place; returns the receiver so pushes
	// can chain
	vm.registerNative(vm.arrayMethods, "push", 1, func(vm *VM, recv Value, args []Value) (Value, error) {
		arr := vm.arena.GetArray(recv)
		arr.Elements = append(arr.Elements, args[0])
		return recv, nil
	})

	// pop - remove and return the last element
	vm.registerNative(vm.arrayMethods, "pop", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		arr := vm.arena.GetArray(recv)
		if len(arr.Elements) == 0 {
			return Nil, &RuntimeError{Kind: IndexOutOfRange, Message: "pop from empty array"}
		}
		last := arr.Elements[len(arr.Elements)-1]
		arr.Elements = arr.Elements[:len(arr.Elements)-1]
		return last, nil
	})

	// remove - delete the element at an index and return it
	vm.registerNative(vm.arrayMethods, "remove", 1, func(vm *VM, recv Value, args []Value) (Value, error) {
		arr := vm.arena.GetArray(recv)
		idx, err := arrayIndex(args[0])
		if err != nil {
			return Nil, err
		}
		if idx < 0 || idx >= len(arr.Elements) {
			return Nil, &RuntimeError{Kind: IndexOutOfRange, Message: fmt.Sprintf("remove index %d out of range for array of length %d", idx, len(arr.Elements))}
		}
		removed := arr.Elements[idx]
		arr.Elements = append(arr.Elements[:idx], arr.Elements[idx+1:]...)
		return removed, nil
	})

	// insert - insert a value before an index; index may equal the length
	vm.registerNative(vm.arrayMethods, "insert", 2, func(vm *VM, recv Value, args []Value) (Value, error) {
		arr := vm.arena.GetArray(recv)
		idx, err := arrayIndex(args[0])
		if err != nil {
			return Nil, err
		}
		if idx < 0 || idx > len(arr.Elements) {
			return Nil, &RuntimeError{Kind: IndexOutOfRange, Message: fmt.Sprintf("insert index %d out of range for array of length %d", idx, len(arr.Elements))}
		}
		arr.Elements = append(arr.Elements, Nil)
		copy(arr.Elements[idx+1:], arr.Elements[idx:])
		arr.Elements[idx] = args[1]
		return recv, nil
	})

	// sort - in-place ascending order over numbers and strings, numbers
	// first; returns the receiver
	vm.registerNative(vm.arrayMethods, "sort", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		arr := vm.arena.GetArray(recv)
		for _, e := range arr.Elements {
			if !e.IsNumber() && !e.IsString() {
				return Nil, &RuntimeError{Kind: TypeMismatch, Message: fmt.Sprintf("cannot sort an array containing a %s value", e.TypeName())}
			}
		}
		sort.SliceStable(arr.Elements, func(i, j int) bool {
			return vm.sortLess(arr.Elements[i], arr.Elements[j])
		})
		return recv, nil
	})

	// resize - grow with nil padding or truncate; returns the receiver
	vm.registerNative(vm.arrayMethods, "resize", 1, func(vm *VM, recv Value, args []Value) (Value, error) {
		arr := vm.arena.GetArray(recv)
		v := args[0]
		if !v.IsNumber() {
			return Nil, &RuntimeError{Kind: TypeMismatch, Message: fmt.Sprintf("resize length must be a number, got %s", v.TypeName())}
		}
		n := int(v.Float64())
		if float64(n) != v.Float64() || n < 0 {
			return Nil, &RuntimeError{Kind: TypeMismatch, Message: fmt.Sprintf("resize length must be a non-negative integer, got %v", v.Float64())}
		}
		for len(arr.Elements) < n {
			arr.Elements = append(arr.Elements, Nil)
		}
		arr.Elements = arr.Elements[:n]
		return recv, nil
	})

	// toString - bracketed rendering, same as print
	vm.registerNative(vm.arrayMethods, "toString", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		return vm.arena.InternString(vm.FormatValue(recv)), nil
	})
}

// sortLess orders two sortable values: numbers before strings, numbers by
// value, strings by content.
func (vm *VM) sortLess(a, b Value) bool {
	switch {
	case a.IsNumber() && b.IsNumber():
		return a.Float64() < b.Float64()
	case a.IsString() && b.IsString():
		return vm.arena.GetString(a) < vm.arena.GetString(b)
	default:
		return a.IsNumber()
	}
}
