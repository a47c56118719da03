// Package ctxtrace is a process-embedded annotation runtime.
//
// Application code attaches nested, typed key/value annotations to the
// current execution context with Begin/End/Set, and later retrieves,
// snapshots, or serializes the resulting context as compact integer
// records. The runtime is built for minimal per-call overhead across
// many concurrent goroutines and for safe read access from code paths
// that must never block — notably sampling or signal-style callbacks
// that want to inspect "where are we" without interfering with the
// goroutines they are observing.
//
// # Quick Start
//
//	fn := ctxtrace.CreateAttribute("function", ctxtrace.TypeString, ctxtrace.PropDefault)
//	env := ctxtrace.CurrentEnvironment()
//
//	ctxtrace.Begin(env, fn, []byte("main"))
//	defer ctxtrace.End(env, fn)
//
//	buf := make([]uint64, 2*ctxtrace.ContextSize(env))
//	ctxtrace.GetContext(env, buf)
//	records := ctxtrace.Unpack(buf)
//
// # API Overview
//
//   - Singleton access: [Instance], [TryInstance]
//   - Environments: [CurrentEnvironment], [CloneEnvironment]
//   - Attributes: [CreateAttribute], [GetAttributeByID], [GetAttributeByName]
//   - Annotation calls: [Begin], [End], [Set]
//   - Retrieval: [ContextSize], [GetContext], [Get], [Unpack]
//   - Serialization: [WriteNodes], [WriteAttributes]
//
// # Concurrency
//
// A single Engine is shared by every goroutine in the process. Node tree
// reads and writes are serialized by a reader/writer lock whose read side
// tolerates reentry from a goroutine that already holds it — see
// internal/rwlock — so Get and Unpack remain safe to call from a goroutine
// that is itself already inside a tree read (for example, from within a
// WriteNodes callback). TryInstance and Get are the two operations this
// package promises are safe to run concurrently with ordinary request
// traffic from a dedicated signal-handling goroutine (see internal/sigtest
// for a harness that exercises this under real OS signal delivery). Begin,
// End, and Set must never be called from such a goroutine while it might
// run concurrently with a write it does not expect: they acquire the
// tree's write lock, which is not reentry-safe.
//
// # Out of scope
//
// This package does not provide a command-line front end, configuration
// file loading, sampling or output-format plugins, or concrete on-disk
// serialization formats — those are external collaborators that consume
// the NodeSink/AttributeSink interfaces exposed here. See package sink
// for one reference implementation.
package ctxtrace
