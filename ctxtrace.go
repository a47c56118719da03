package ctxtrace

import (
	"github.com/kolkov/ctxtrace/internal/attribute"
	"github.com/kolkov/ctxtrace/internal/engine"
	"github.com/kolkov/ctxtrace/internal/node"
	"github.com/kolkov/ctxtrace/internal/record"
)

// Re-exported attribute types and constants, so callers never need to
// import an internal package directly.
type (
	// Type is the declared value type of an attribute.
	Type = attribute.Type
	// Properties is a bitset of attribute flags.
	Properties = attribute.Properties
	// Attribute is an immutable declared annotation dimension.
	Attribute = attribute.Attribute
	// Entry is one decoded record of a reconstructed active path,
	// returned by Unpack.
	Entry = record.Entry
	// Node is one step of an active annotation path in the shared
	// context tree, returned by Get.
	Node = node.Node
	// NodeSink receives one call per context-tree node during
	// WriteNodes.
	NodeSink = engine.NodeSink
	// AttributeSink receives one call per attribute during
	// WriteAttributes.
	AttributeSink = attribute.Sink
)

// The attribute value types the engine understands.
const (
	TypeInv    = attribute.TypeInv
	TypeUsr    = attribute.TypeUsr
	TypeInt    = attribute.TypeInt
	TypeUint   = attribute.TypeUint
	TypeString = attribute.TypeString
	TypeAddr   = attribute.TypeAddr
	TypeDouble = attribute.TypeDouble
	TypeBool   = attribute.TypeBool
	TypeType   = attribute.TypeType
)

// Attribute properties.
const (
	PropDefault      = attribute.PropDefault
	PropStoreAsValue = attribute.PropStoreAsValue
	PropGlobal       = attribute.PropGlobal
)

// InvalidID is the sentinel attribute/node id: no attribute or node is
// ever assigned this id.
const InvalidID = attribute.InvalidID

// Invalid is the sentinel Attribute returned on a failed lookup.
var Invalid = attribute.Invalid

// Instance returns the process-wide Engine handle, constructing it on
// first call under a one-shot lock. Tests and embedders that want an
// isolated runtime should use engine.New directly instead (see
// internal/engine); Instance exists for callers that want the single
// process-wide annotation context.
func Instance() *engine.Engine { return engine.Instance() }

// TryInstance returns the process-wide Engine if it has already been
// constructed, or nil otherwise. Unlike Instance, it never blocks and
// never allocates, making it the only entry point safe to call from a
// signal-style callback that might run concurrently with Instance's own
// one-shot construction.
func TryInstance() *engine.Engine { return engine.TryInstance() }

// CurrentEnvironment returns the calling environment id. The core always
// returns 0; correlating goroutines or threads to distinct environments
// is left to an external collaborator.
func CurrentEnvironment() uint64 { return Instance().CurrentEnvironment() }

// CloneEnvironment returns a new environment id seeded with a copy of
// env's current entries.
func CloneEnvironment(env uint64) uint64 { return Instance().CloneEnvironment(env) }

// ContextSize reports how many active entries are visible from env.
func ContextSize(env uint64) int { return Instance().ContextSize(env) }

// GetContext serializes env's active entries into buf as (key, value)
// pairs and returns the number of pairs written.
func GetContext(env uint64, buf []uint64) int { return Instance().GetContext(env, buf) }

// CreateAttribute declares name with the given type and properties,
// returning the existing Attribute unchanged if name was already
// declared.
func CreateAttribute(name string, typ Type, props Properties) Attribute {
	return Instance().CreateAttribute(name, typ, props)
}

// GetAttributeByID returns the attribute with the given id, or Invalid
// on a miss.
func GetAttributeByID(id uint32) Attribute { return Instance().GetAttributeByID(id) }

// GetAttributeByName returns the attribute with the given name, or
// Invalid on a miss.
func GetAttributeByName(name string) Attribute { return Instance().GetAttributeByName(name) }

// Begin pushes a new (attr, value) annotation step onto env's active
// path. See engine.Engine.Begin for the full contract.
func Begin(env uint64, attr Attribute, value []byte) error {
	return Instance().Begin(env, attr, value)
}

// End pops attr's innermost active step from env's active path. See
// engine.Engine.End for the full contract.
func End(env uint64, attr Attribute) error { return Instance().End(env, attr) }

// Set replaces the innermost value of attr on env's active path. See
// engine.Engine.Set for the full contract.
func Set(env uint64, attr Attribute, value []byte) error {
	return Instance().Set(env, attr, value)
}

// Get returns the node with the given id, or nil if id is out of range.
func Get(id uint32) *Node { return Instance().Get(id) }

// Unpack decodes a snapshot buffer into an ordered list of typed
// records.
func Unpack(buf []uint64) []Entry { return Instance().Unpack(buf) }

// WriteNodes iterates the node tree in id order and reports each node to
// sink.
func WriteNodes(sink NodeSink) { Instance().WriteNodes(sink) }

// WriteAttributes iterates the attribute registry in id order and
// reports each attribute to sink.
func WriteAttributes(sink AttributeSink) { Instance().WriteAttributes(sink) }
