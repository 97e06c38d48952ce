// Package entity provides the naming and identity shared by every entity
// hosted by switchd.
package entity

import "hash/fnv"

// Entity carries a display name and the identifiers derived from it.
type Entity struct {
	name string
}

// New creates an Entity with the given display name. The name may be empty.
func New(name string) Entity {
	return Entity{name: name}
}

// Name returns the display name.
func (e Entity) Name() string {
	return e.name
}

// ObjectID returns the name in snake case with every character outside
// [a-z0-9_-] replaced by an underscore.
func (e Entity) ObjectID() string {
	return ObjectID(e.name)
}

// ObjectIDHash returns a stable 32-bit hash of the object id. It is used as
// the key for anything persisted on behalf of the entity.
func (e Entity) ObjectIDHash() uint32 {
	return Hash(e.ObjectID())
}

// String returns the display name.
func (e Entity) String() string {
	return e.name
}

// ObjectID converts a display name into an object id. It works on bytes:
// ASCII letters are lowercased, and each byte of a multi-byte character
// becomes its own underscore, so "Küche" is "k__che".
func ObjectID(name string) string {
	b := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
			b[i] = c
		default:
			b[i] = '_'
		}
	}
	return string(b)
}

// Hash computes the 32-bit FNV-1 hash of s.
func Hash(s string) uint32 {
	h := fnv.New32()
	h.Write([]byte(s)) //nolint:errcheck
	return h.Sum32()
}
