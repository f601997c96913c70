// Package traverse is the depth-first driver shared by the deobfuscation
// pass and the detection pass. It owns the decoration store access
// (set/reduce/forget), the strategy hook, and the pre-order/post-order
// enter/leave dispatch. Rules themselves live in internal/rules and
// internal/detect and only ever see the MutNode capability this package
// hands them.
package traverse

import (
	"github.com/benzoXdev/deobfusps/internal/decor"
	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/scope"
)

// Flow is the branch-predictability flag threaded through a traversal.
type Flow int

const (
	Predictable Flow = iota
	Unpredictable
)

// ControlFlow is what a Strategy returns for a node the driver is about to
// descend into.
type ControlFlow int

const (
	Break ControlFlow = iota
	ContinuePredictable
	ContinueUnpredictable
)

// Lookup resolves a node's current decoration, if any. A Strategy uses it
// to inspect, say, an if-statement's condition before deciding whether its
// branches are predictable.
type Lookup[V any] func(n *psast.Node) (V, bool)

// Strategy decides, per node, whether the driver should skip it entirely
// and, if not, whether the subtree is predictable or not.
type Strategy[V any] interface {
	Control(n *psast.Node, lookup Lookup[V]) ControlFlow
}

// Rule is the interface every catalogue entry and detector implements.
// Enter fires on pre-order descent, Leave on post-order ascent; flow is the
// predictability in effect for this node (it may differ from the parent's
// if a Strategy just gated entry into this subtree).
type Rule[V any] interface {
	Enter(n *MutNode[V], flow Flow) error
	Leave(n *MutNode[V], flow Flow) error
}

// Composite runs a slice of rules as a single rule: Enter calls every
// element's Enter in order, Leave calls every element's Leave in order.
// This is the Go analogue of the tuple-of-rules composition mechanism —
// order matters only insofar as one rule's output feeds another's input.
type Composite[V any] []Rule[V]

func (c Composite[V]) Enter(n *MutNode[V], flow Flow) error {
	for _, r := range c {
		if err := r.Enter(n, flow); err != nil {
			return err
		}
	}
	return nil
}

func (c Composite[V]) Leave(n *MutNode[V], flow Flow) error {
	for _, r := range c {
		if err := r.Leave(n, flow); err != nil {
			return err
		}
	}
	return nil
}

// MutNode is the capability object a rule receives: a read-only view of the
// current node plus three mutators backed by the driver's decoration store
// and scope manager.
type MutNode[V any] struct {
	node  *psast.Node
	store *decor.Store[V]
	scope *scope.Manager
	flow  Flow
}

// View returns the underlying read-only node.
func (m *MutNode[V]) View() *psast.Node { return m.node }

// Data returns the decoration currently set for this node, if any.
func (m *MutNode[V]) Data() (V, bool) { return m.store.Get(m.node.ID()) }

// DataOf returns the decoration for an arbitrary other node (used when a
// rule inspects a child or sibling's inferred value).
func (m *MutNode[V]) DataOf(n *psast.Node) (V, bool) {
	if n == nil {
		var zero V
		return zero, false
	}
	return m.store.Get(n.ID())
}

// Set unconditionally writes v as this node's decoration, regardless of the
// current predictability flow. Used for intrinsic, branch-independent
// values such as parsing a numeric literal.
func (m *MutNode[V]) Set(v V) { m.store.Set(m.node.ID(), v) }

// Reduce writes v only when the current flow is Predictable; under
// Unpredictable it is a no-op. Used for forwarding an already-inferred
// value up through an aggregate node whose truthiness might be
// branch-dependent.
func (m *MutNode[V]) Reduce(v V) {
	if m.flow == Predictable {
		m.store.Set(m.node.ID(), v)
	}
}

// Scope exposes the variable scope manager to rules that track assignment.
func (m *MutNode[V]) Scope() *scope.Manager { return m.scope }

// Forget targets the variable scope table: the named variable's binding
// becomes untracked.
func (m *MutNode[V]) Forget(name string) { m.scope.Forget(name) }

// Driver owns one traversal: its own decoration store, scope manager and a
// rule composition, walked under a strategy.
type Driver[V any] struct {
	Store    *decor.Store[V]
	Scope    *scope.Manager
	Rule     Rule[V]
	Strategy Strategy[V]
}

// NewDriver builds a Driver with a fresh store and scope manager.
func NewDriver[V any](rule Rule[V], strat Strategy[V]) *Driver[V] {
	return &Driver[V]{
		Store:    &decor.Store[V]{},
		Scope:    &scope.Manager{},
		Rule:     rule,
		Strategy: strat,
	}
}

// Lookup adapts the store's ID-keyed Get into the node-keyed Lookup shape a
// Strategy and the re-emitter expect.
func (d *Driver[V]) Lookup(n *psast.Node) (V, bool) {
	if n == nil {
		var zero V
		return zero, false
	}
	return d.Store.Get(n.ID())
}

// Run walks root depth-first pre-order, invoking Enter before descending
// into children and Leave after. The strategy is consulted before
// descending into every node; Break skips the whole subtree (no Enter/Leave
// fire on it or its descendants), Continue{Predictable,Unpredictable} picks
// the flow for that node. Each descendant is consulted in turn and its own
// answer replaces the flow; a node inherits its parent's flow only when no
// Strategy is set.
func (d *Driver[V]) Run(root *psast.Node) error {
	return d.walk(root, Predictable)
}

func (d *Driver[V]) walk(n *psast.Node, parentFlow Flow) error {
	flow := parentFlow
	if d.Strategy != nil {
		switch d.Strategy.Control(n, d.Lookup) {
		case Break:
			return nil
		case ContinuePredictable:
			flow = Predictable
		case ContinueUnpredictable:
			flow = Unpredictable
		}
	}

	mn := &MutNode[V]{node: n, store: d.Store, scope: d.Scope, flow: flow}
	if err := d.Rule.Enter(mn, flow); err != nil {
		return err
	}
	for i := 0; i < n.ChildCount(); i++ {
		if err := d.walk(n.Child(i), flow); err != nil {
			return err
		}
	}
	mn2 := &MutNode[V]{node: n, store: d.Store, scope: d.Scope, flow: flow}
	if err := d.Rule.Leave(mn2, flow); err != nil {
		return err
	}
	return nil
}
