package interp

import "github.com/ecorun/ecolang/pkg/value"

// Environment holds variable and constant bindings for one scope. The
// top-level run owns one Environment; each function call gets a fresh
// one seeded only with its parameters.
type Environment struct {
	vars   map[string]value.Value
	consts map[string]struct{}
}

// NewEnvironment creates an empty scope.
func NewEnvironment() *Environment {
	return &Environment{
		vars:   make(map[string]value.Value),
		consts: make(map[string]struct{}),
	}
}

// Lookup resolves a name. It satisfies expr.Env.
func (e *Environment) Lookup(name string) (value.Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Set binds name to v, rebinding any previous value.
func (e *Environment) Set(name string, v value.Value) {
	e.vars[name] = v
}

// SetConst binds name as a write-once constant.
func (e *Environment) SetConst(name string, v value.Value) {
	e.vars[name] = v
	e.consts[name] = struct{}{}
}

// IsConst reports whether name is const-bound in this scope.
func (e *Environment) IsConst(name string) bool {
	_, ok := e.consts[name]
	return ok
}

// Has reports whether name is bound in this scope.
func (e *Environment) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}
