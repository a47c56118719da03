// Package context implements the per-environment active-path storage:
// a mapping from attribute id to either an immediate 64-bit value or a
// context-tree node id, plus one environment-independent slot for
// attributes declared global.
//
// Each environment's entries live in their own sync.Map so that
// concurrent annotation calls on different environments never contend
// with each other — the same sharding-by-key technique used by shadow
// memory implementations that key a sync.Map by address instead of by
// environment id.
package context

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Pair is one decoded (attribute id, payload) entry of a snapshot.
type Pair struct {
	Key   uint32
	Value uint64
}

// Context holds the active annotation state for every environment.
// Environment 0 always exists and is the implicit default.
type Context struct {
	mu      sync.RWMutex
	envs    map[uint64]*sync.Map
	globals sync.Map
	nextEnv atomic.Uint64
}

// New returns a Context with environment 0 already present.
func New() *Context {
	c := &Context{envs: make(map[uint64]*sync.Map)}
	c.envs[0] = &sync.Map{}
	c.nextEnv.Store(1)
	return c
}

// environment returns the per-environment entry map for env, creating it
// if it does not yet exist (environments other than 0 are normally
// created via CloneEnvironment, but lookups against an id that was never
// cloned degrade gracefully to an empty environment rather than a panic).
func (c *Context) environment(env uint64) *sync.Map {
	c.mu.RLock()
	m, ok := c.envs[env]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.envs[env]; ok {
		return m
	}
	m = &sync.Map{}
	c.envs[env] = m
	return m
}

// CloneEnvironment returns a new environment id initialized to a copy of
// source's current entries. Later writes to either environment do not
// affect the other.
func (c *Context) CloneEnvironment(source uint64) uint64 {
	src := c.environment(source)

	id := c.nextEnv.Add(1) - 1
	dst := &sync.Map{}
	src.Range(func(k, v any) bool {
		dst.Store(k, v)
		return true
	})

	c.mu.Lock()
	c.envs[id] = dst
	c.mu.Unlock()
	return id
}

// Set writes the entry for key in env. If global is true, the write is
// visible from every environment instead of just env.
func (c *Context) Set(env uint64, key uint32, value uint64, global bool) {
	if global {
		c.globals.Store(key, value)
		return
	}
	c.environment(env).Store(key, value)
}

// Unset removes the entry for key in env. If global is true, the removal
// targets the global slot instead of env's own entries — mirroring Set,
// an attribute unset globally must be unset through the same global path
// it was set with, or the global entry would never clear.
func (c *Context) Unset(env uint64, key uint32, global bool) {
	if global {
		c.globals.Delete(key)
		return
	}
	c.environment(env).Delete(key)
}

// Get returns the active value for key in env, consulting the global
// slot as a fallback when env has no per-environment entry.
func (c *Context) Get(env uint64, key uint32) (uint64, bool) {
	if v, ok := c.environment(env).Load(key); ok {
		return v.(uint64), true
	}
	if v, ok := c.globals.Load(key); ok {
		return v.(uint64), true
	}
	return 0, false
}

// ContextSize returns the number of active entries visible from env
// (per-environment entries plus any global entries not shadowed by one).
func (c *Context) ContextSize(env uint64) int {
	return len(c.snapshot(env))
}

// GetContext serializes the active entries visible from env as
// (key, value) pairs into buf, in ascending key order, and returns the
// number of pairs written. At most len(buf)/2 pairs are written; buf may
// be shorter than the full context, in which case the result is
// truncated.
func (c *Context) GetContext(env uint64, buf []uint64) int {
	pairs := c.snapshot(env)
	maxPairs := len(buf) / 2

	n := 0
	for i := 0; i < len(pairs) && i < maxPairs; i++ {
		buf[2*i] = uint64(pairs[i].Key)
		buf[2*i+1] = pairs[i].Value
		n++
	}
	return n
}

// snapshot merges env's per-environment entries over the global entries
// (per-environment entries take precedence for the same key) and returns
// them sorted by key ascending, which is what makes hashing a serialized
// buffer a stable operation for a given in-memory state.
func (c *Context) snapshot(env uint64) []Pair {
	merged := make(map[uint32]uint64)

	c.globals.Range(func(k, v any) bool {
		merged[k.(uint32)] = v.(uint64)
		return true
	})
	c.environment(env).Range(func(k, v any) bool {
		merged[k.(uint32)] = v.(uint64)
		return true
	})

	keys := make([]uint32, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{Key: k, Value: merged[k]}
	}
	return pairs
}
