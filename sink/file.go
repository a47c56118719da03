// Package sink provides one reference NodeSink/AttributeSink
// implementation: a flat binary dump of the node tree and attribute
// registry, written with an atomic rename so a crash mid-write never
// leaves a torn file behind for a downstream reader to trip over.
//
// The core deliberately leaves "the concrete on-disk formats produced by
// writer sinks" to external collaborators (see the top-level package
// doc); this package is one such collaborator, not part of the engine's
// contract, and callers are free to implement NodeSink/AttributeSink
// themselves against any format they like.
package sink

import (
	"bytes"
	"encoding/binary"
	"strings"

	atomicfile "github.com/natefinch/atomic"

	"github.com/kolkov/ctxtrace/internal/attribute"
)

// NodeFile accumulates WriteNode calls into an in-memory buffer and
// flushes them to disk as one atomically-renamed file.
//
// Record layout (little-endian, repeated until EOF):
//
//	u32 id
//	u32 parentID
//	u32 attributeID
//	u32 valueLen
//	byte[valueLen] value
type NodeFile struct {
	buf bytes.Buffer
}

// NewNodeFile returns an empty NodeFile sink.
func NewNodeFile() *NodeFile { return &NodeFile{} }

// WriteNode implements engine.NodeSink.
func (f *NodeFile) WriteNode(id, parentID, attributeID uint32, value []byte, _ attribute.Attribute) {
	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:4], id)
	binary.LittleEndian.PutUint32(hdr[4:8], parentID)
	binary.LittleEndian.PutUint32(hdr[8:12], attributeID)
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(value)))
	f.buf.Write(hdr[:])
	f.buf.Write(value)
}

// Flush atomically writes the accumulated records to path: the new
// content lands at path only after it has been fully written to a
// temporary file in the same directory, so a reader never observes a
// partial file.
func (f *NodeFile) Flush(path string) error {
	return atomicfile.WriteFile(path, bytes.NewReader(f.buf.Bytes()))
}

// AttributeFile accumulates WriteAttribute calls into an in-memory
// buffer and flushes them to disk as one atomically-renamed file.
//
// Record layout (little-endian, repeated until EOF):
//
//	u32 id
//	u32 type
//	u32 properties
//	u32 nameLen
//	byte[nameLen] name (UTF-8)
type AttributeFile struct {
	buf bytes.Buffer
}

// NewAttributeFile returns an empty AttributeFile sink.
func NewAttributeFile() *AttributeFile { return &AttributeFile{} }

// WriteAttribute implements attribute.Sink.
func (f *AttributeFile) WriteAttribute(a attribute.Attribute) {
	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:4], a.ID)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(a.Type))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(a.Properties))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(a.Name)))
	f.buf.Write(hdr[:])
	f.buf.WriteString(a.Name)
}

// Flush atomically writes the accumulated records to path.
func (f *AttributeFile) Flush(path string) error {
	return atomicfile.WriteFile(path, strings.NewReader(f.buf.String()))
}
