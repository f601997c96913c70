// Package scope implements the variable scope table consulted by the
// variable-tracking rule: a stack of name→value maps, one entry pushed per
// function-statement entry and popped on exit.
package scope

import (
	"strings"

	"github.com/benzoXdev/deobfusps/internal/value"
)

// Manager is a stack of scopes. The zero Manager has exactly one (empty)
// scope, matching the contract that a program starts with one scope on the
// stack.
type Manager struct {
	scopes []map[string]value.Value
}

func (m *Manager) ensure() {
	if len(m.scopes) == 0 {
		m.scopes = []map[string]value.Value{make(map[string]value.Value)}
	}
}

// Enter pushes a clone of the current top scope, modelling a function call:
// the callee sees the caller's bindings but mutations do not escape back.
func (m *Manager) Enter() {
	m.ensure()
	top := m.scopes[len(m.scopes)-1]
	clone := make(map[string]value.Value, len(top))
	for k, v := range top {
		clone[k] = v
	}
	m.scopes = append(m.scopes, clone)
}

// Leave pops the current scope. Calling Leave with only one scope on the
// stack is a no-op: the outermost program scope is never popped.
func (m *Manager) Leave() {
	if len(m.scopes) > 1 {
		m.scopes = m.scopes[:len(m.scopes)-1]
	}
}

// Assign records name → v in the current scope. Names are matched
// case-insensitively, as PowerShell variable names are.
func (m *Manager) Assign(name string, v value.Value) {
	m.ensure()
	m.scopes[len(m.scopes)-1][normalize(name)] = v
}

// Forget removes any binding for name, so subsequent lookups yield no
// inference. Used whenever a rule cannot prove the assigned value.
func (m *Manager) Forget(name string) {
	m.ensure()
	delete(m.scopes[len(m.scopes)-1], normalize(name))
}

// Lookup returns the current binding for name, if any.
func (m *Manager) Lookup(name string) (value.Value, bool) {
	m.ensure()
	v, ok := m.scopes[len(m.scopes)-1][normalize(name)]
	return v, ok
}

// Depth reports how many scopes are currently pushed; 1 at program level.
func (m *Manager) Depth() int {
	m.ensure()
	return len(m.scopes)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "$"))
}
