// Package engine composes the attribute registry, context trie, and
// per-environment context storage into the annotation runtime's single
// top-level object: begin/end/set mutate the active environment, get and
// unpack decode node ids and snapshots back into typed data, and
// write_nodes/write_attributes stream the registry and tree to a caller
// supplied sink.
package engine

import (
	"encoding/binary"

	"github.com/kolkov/ctxtrace/internal/attribute"
	"github.com/kolkov/ctxtrace/internal/context"
	"github.com/kolkov/ctxtrace/internal/node"
	"github.com/kolkov/ctxtrace/internal/record"
)

// Options configures a new Engine. The zero value is a valid, default
// configuration.
type Options struct {
	// SlabSize is the minimum size of a freshly grown node-value slab.
	// Non-positive values fall back to pool.DefaultSlabSize.
	SlabSize int
}

// Engine is the process-wide annotation runtime. A single Engine owns
// the node tree, the attribute registry, and every environment's active
// path; construct one with New, or reach the process singleton with
// Instance/TryInstance.
type Engine struct {
	attrs *attribute.Store
	tree  *node.Tree
	ctx   *context.Context
}

// New constructs a private Engine. Tests should prefer New over the
// singleton so that cases do not interfere with each other.
func New(opts Options) *Engine {
	return &Engine{
		attrs: attribute.NewStore(),
		tree:  node.NewTree(opts.SlabSize),
		ctx:   context.New(),
	}
}

// CreateAttribute declares name with the given type and properties,
// returning the existing Attribute unchanged if name was already
// declared.
func (e *Engine) CreateAttribute(name string, typ attribute.Type, props attribute.Properties) attribute.Attribute {
	return e.attrs.Create(name, typ, props)
}

// GetAttributeByID returns the attribute with the given id, or
// attribute.Invalid on a miss.
func (e *Engine) GetAttributeByID(id uint32) attribute.Attribute {
	return e.attrs.GetByID(id)
}

// GetAttributeByName returns the attribute with the given name, or
// attribute.Invalid on a miss.
func (e *Engine) GetAttributeByName(name string) attribute.Attribute {
	return e.attrs.GetByName(name)
}

// CurrentEnvironment always returns 0: the core does not itself decide
// which environment belongs to which goroutine or thread — that
// correlation is an external collaborator's concern. Environment 0 is
// always present and is the implicit default every caller starts from.
func (e *Engine) CurrentEnvironment() uint64 { return 0 }

// CloneEnvironment returns a new environment id seeded with a copy of
// env's current entries.
func (e *Engine) CloneEnvironment(env uint64) uint64 {
	return e.ctx.CloneEnvironment(env)
}

// ContextSize reports how many active entries are visible from env.
func (e *Engine) ContextSize(env uint64) int {
	return e.ctx.ContextSize(env)
}

// GetContext serializes env's active entries into buf as (key, value)
// pairs and returns the number of pairs written.
func (e *Engine) GetContext(env uint64, buf []uint64) int {
	return e.ctx.GetContext(env, buf)
}

// Begin pushes a new (attr, value) step onto env's active path for attr,
// creating or reusing the matching context-tree node as a child of the
// attribute's current leaf (or the root, if attr has no active entry
// yet). If attr.StoreAsValue() and value is exactly 8 bytes, the value
// is stored inline instead of walking the tree.
func (e *Engine) Begin(env uint64, attr attribute.Attribute, value []byte) error {
	if !attr.IsValid() {
		return ErrInvalid
	}
	key := attr.ID

	if attr.StoreAsValue() && len(value) == 8 {
		e.ctx.Set(env, key, binary.LittleEndian.Uint64(value), attr.IsGlobal())
		return nil
	}

	parent := e.tree.Root()
	if p, ok := e.ctx.Get(env, key); ok {
		if n := e.tree.Get(uint32(p)); n != nil {
			parent = n
		}
	}

	n := e.resolveChild(parent, key, value)
	e.ctx.Set(env, key, uint64(n.ID()), attr.IsGlobal())
	return nil
}

// Set replaces the innermost value of attr on env's active path with
// value, without pushing a new nesting level: the new node becomes a
// sibling of attr's current leaf under the same parent, rather than a
// child of it. A Begin(A, v1); Set(A, v2); End(A) sequence therefore
// leaves the active path exactly where Begin found it.
func (e *Engine) Set(env uint64, attr attribute.Attribute, value []byte) error {
	if !attr.IsValid() {
		return ErrInvalid
	}
	key := attr.ID

	if attr.StoreAsValue() && len(value) == 8 {
		e.ctx.Set(env, key, binary.LittleEndian.Uint64(value), attr.IsGlobal())
		return nil
	}

	parent := e.tree.Root()
	if p, ok := e.ctx.Get(env, key); ok {
		if leaf := e.tree.Get(uint32(p)); leaf != nil && leaf.Parent() != nil {
			parent = leaf.Parent()
		}
	}

	n := e.resolveChild(parent, key, value)
	e.ctx.Set(env, key, uint64(n.ID()), attr.IsGlobal())
	return nil
}

// resolveChild returns the existing child of parent matching (key,
// value), creating and linking one if none exists.
func (e *Engine) resolveChild(parent *node.Node, key uint32, value []byte) *node.Node {
	if n := e.tree.FindChild(parent, key, value); n != nil {
		return n
	}
	n := e.tree.CreateNode(key, value)
	e.tree.AppendChild(parent, n)
	return n
}

// End pops attr's innermost active step, restoring env's active path to
// what it was before the matching Begin. If the active leaf for attr was
// pushed by a different attribute more recently (nested unrelated
// Begins), End walks up the parent chain to find attr's own step,
// unwinding past them. End of an attribute that was never Begun returns
// ErrInvalid and does not mutate anything.
func (e *Engine) End(env uint64, attr attribute.Attribute) error {
	if !attr.IsValid() {
		return ErrInvalid
	}
	key := attr.ID

	if attr.StoreAsValue() {
		e.ctx.Unset(env, key, attr.IsGlobal())
		return nil
	}

	p, ok := e.ctx.Get(env, key)
	if !ok {
		return ErrInvalid
	}

	n := e.tree.Get(uint32(p))
	if n == nil {
		return ErrInvalid
	}
	for n != nil && n.AttributeID() != key {
		n = n.Parent()
	}
	if n == nil {
		return ErrInvalid
	}

	popped := n.Parent()
	if popped == nil || popped == e.tree.Root() {
		e.ctx.Unset(env, key, attr.IsGlobal())
		return nil
	}
	// The global flag is not re-asserted here: End does not know whether
	// the original Begin/Set that produced the popped leaf was global.
	e.ctx.Set(env, key, uint64(popped.ID()), false)
	return nil
}

// Get returns the node with the given id, or nil if id is out of range.
func (e *Engine) Get(id uint32) *node.Node {
	return e.tree.Get(id)
}

// Unpack decodes a snapshot buffer into an ordered list of typed records.
func (e *Engine) Unpack(buf []uint64) []record.Entry {
	return record.Unpack(e.attrs.GetByID, e.tree.Get, buf)
}

// NodeSink receives one call per context-tree node during WriteNodes.
type NodeSink interface {
	WriteNode(id, parentID, attributeID uint32, value []byte, attr attribute.Attribute)
}

// WriteNodes iterates the node tree in id order and reports each node to
// sink, along with its parent id and resolved attribute metadata.
func (e *Engine) WriteNodes(sink NodeSink) {
	e.tree.Walk(func(n *node.Node) {
		parentID := node.InvalidID
		if p := n.Parent(); p != nil {
			parentID = p.ID()
		}
		sink.WriteNode(n.ID(), parentID, n.AttributeID(), n.Value(), e.attrs.GetByID(n.AttributeID()))
	})
}

// WriteAttributes iterates the attribute registry in id order and
// reports each attribute to sink.
func (e *Engine) WriteAttributes(sink attribute.Sink) {
	e.attrs.Write(sink)
}
