// Package signature provides canonical structural signatures used to
// detect duplicate merge partitions and duplicate candidate variants.
//
// A signature is a tagged byte encoding built with Builder. Set stores
// signatures bucketed by their xxhash digest and compares the full bytes
// on digest collision, so equality is exact.
package signature

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const (
	tagInt   byte = 'i'
	tagID    byte = 'u'
	tagGroup byte = '|'
)

// Builder accumulates a canonical encoding. The zero value is ready to use.
type Builder struct {
	buf []byte
}

// Int appends a signed integer token.
func (b *Builder) Int(v int64) *Builder {
	b.buf = append(b.buf, tagInt)
	b.buf = binary.BigEndian.AppendUint64(b.buf, uint64(v))
	return b
}

// ID appends a UUID token.
func (b *Builder) ID(id uuid.UUID) *Builder {
	b.buf = append(b.buf, tagID)
	b.buf = append(b.buf, id[:]...)
	return b
}

// Group closes the current group of tokens.
func (b *Builder) Group() *Builder {
	b.buf = append(b.buf, tagGroup)
	return b
}

// Bytes returns the encoding built so far. The caller must not modify it
// while the builder is still in use.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Digest returns the xxhash of the encoding built so far.
func (b *Builder) Digest() uint64 {
	return xxhash.Sum64(b.buf)
}

// Set is a set of signatures. It is not safe for concurrent use.
type Set struct {
	buckets map[uint64][][]byte
	n       int
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{buckets: make(map[uint64][][]byte)}
}

// Add inserts sig and reports whether it was not already present. The set
// keeps its own copy of sig.
func (s *Set) Add(sig []byte) bool {
	d := xxhash.Sum64(sig)
	for _, existing := range s.buckets[d] {
		if bytes.Equal(existing, sig) {
			return false
		}
	}
	s.buckets[d] = append(s.buckets[d], bytes.Clone(sig))
	s.n++
	return true
}

// Contains reports whether sig is in the set.
func (s *Set) Contains(sig []byte) bool {
	for _, existing := range s.buckets[xxhash.Sum64(sig)] {
		if bytes.Equal(existing, sig) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct signatures.
func (s *Set) Len() int {
	return s.n
}
