// Package binpack holds the fixed-width integer and time packing primitives
// the arena is built from. The cache engine only ever calls PutUint32/
// Uint32 and PutInstant/Instant, never encoding/binary directly, so the
// in-arena byte layout has exactly one place that knows it.
//
// © 2025 arena-cache authors. MIT License.
package binpack

import (
	"encoding/binary"
	"time"
)

// Uint32Size and InstantSize are the wire sizes of the two primitives the
// arena's entry header is built from (link/keylen/datalen use Uint32Size,
// expire uses InstantSize).
const (
	Uint32Size  = 4
	InstantSize = 8
)

// PutUint32 writes v as little-endian into buf[0:4]. Panics if buf is too
// short; callers are expected to have already bounds-checked against the
// arena via internal/arena before calling this.
func PutUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// Uint32 reads a little-endian uint32 from buf[0:4].
func Uint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// PutInstant packs t as whole Unix seconds into buf[0:8]. Sub-second
// precision is intentionally discarded: TTLs are returned truncated to
// whole seconds (see cache.Get), so persisting more than that would be
// false precision.
func PutInstant(buf []byte, t time.Time) {
	binary.LittleEndian.PutUint64(buf, uint64(t.Unix()))
}

// Instant unpacks a time previously written by PutInstant.
func Instant(buf []byte) time.Time {
	sec := int64(binary.LittleEndian.Uint64(buf))
	return time.Unix(sec, 0)
}
