package vm

import "math"

// ---------------------------------------------------------------------------
// Number builtin methods
// ---------------------------------------------------------------------------

// registerNumberPrimitives registers the builtin methods dispatched on
// number receivers. Called from NewVM.
func (vm *VM) registerNumberPrimitives() {
	// floor - round towards negative infinity
	vm.registerNative(vm.numberMethods, "floor", 0, func(_ *VM, recv Value, _ []Value) (Value, error) {
		return FromFloat64(math.Floor(recv.Float64())), nil
	})

	// abs - absolute value
	vm.registerNative(vm.numberMethods, "abs", 0, func(_ *VM, recv Value, _ []Value) (Value, error) {
		return FromFloat64(math.Abs(recv.Float64())), nil
	})

	// toString - minimal decimal rendering, same as print
	vm.registerNative(vm.numberMethods, "toString", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		return vm.arena.InternString(vm.FormatValue(recv)), nil
	})
}
