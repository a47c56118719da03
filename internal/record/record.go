// Package record implements ContextRecord: the encoder/decoder between a
// flat little-endian u64 snapshot buffer and the typed (attribute, value)
// records it represents.
package record

import (
	"github.com/kolkov/ctxtrace/internal/attribute"
	"github.com/kolkov/ctxtrace/internal/node"
)

// Entry is one decoded record of a reconstructed active path.
type Entry struct {
	// Attribute is the attribute this entry annotates. For entries
	// decoded from a node reference, this is the node's own attribute,
	// which may differ from the snapshot key that led to it (a single
	// leaf node id encodes every ancestor attribute on its path).
	Attribute attribute.Attribute

	// Immediate holds the value when Attribute.StoreAsValue() is true.
	Immediate uint64

	// NodeID and Value hold the originating node's id and payload bytes
	// when Attribute.StoreAsValue() is false.
	NodeID uint32
	Value  []byte
}

// AttributeLookup resolves an attribute id to its metadata.
type AttributeLookup func(id uint32) attribute.Attribute

// NodeLookup resolves a node id to its Node, or nil if out of range.
type NodeLookup func(id uint32) *node.Node

// Unpack decodes a snapshot buffer of alternating (attribute_id, payload)
// u64 pairs into an ordered list of typed records.
//
// For an immediate-valued attribute, the payload is the value itself and
// decodes to exactly one record. For a node-valued attribute, the
// payload is a node id; Unpack walks that node's parent chain, emitting
// one record per ancestor up to (but not including) the root, using each
// ancestor's own attribute — this is what lets one compact node id stand
// in for an entire nested annotation path.
//
// Pairs whose attribute id is not registered are skipped rather than
// causing an error, since a stale or cross-process snapshot may reference
// ids this registry never assigned.
func Unpack(attrs AttributeLookup, nodes NodeLookup, buf []uint64) []Entry {
	var out []Entry

	for i := 0; i+1 < len(buf); i += 2 {
		key := uint32(buf[i])
		payload := buf[i+1]

		a := attrs(key)
		if !a.IsValid() {
			continue
		}

		if a.StoreAsValue() {
			out = append(out, Entry{Attribute: a, Immediate: payload})
			continue
		}

		for n := nodes(uint32(payload)); n != nil && n.AttributeID() != node.InvalidID; n = n.Parent() {
			na := attrs(n.AttributeID())
			out = append(out, Entry{
				Attribute: na,
				NodeID:    n.ID(),
				Value:     n.Value(),
			})
		}
	}

	return out
}
