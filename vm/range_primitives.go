package vm

// ---------------------------------------------------------------------------
// Range builtin methods
// ---------------------------------------------------------------------------

// registerRangePrimitives registers the builtin methods dispatched on
// range receivers. Called from NewVM.
func (vm *VM) registerRangePrimitives() {
	// len - number of iteration steps
	vm.registerNative(vm.rangeMethods, "len", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		return FromFloat64(float64(rangeLen(vm.arena.GetRange(recv)))), nil
	})

	// toString - lo..hi rendering, same as print
	vm.registerNative(vm.rangeMethods, "toString", 0, func(vm *VM, recv Value, _ []Value) (Value, error) {
		return vm.arena.InternString(vm.FormatValue(recv)), nil
	})
}
