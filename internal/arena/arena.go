// Package arena owns the single contiguous byte buffer a cache instance
// writes into and the four cursors (HSize, Writer, Oldest, Unused) that
// partition it.  It is the "arena layout manager" concern: allocation,
// zeroing, bounds-checked reads/writes, and the hsize sizing rule live here
// so that pkg/cache.go can stay focused on the hashing/eviction protocol
// built on top.
//
// Earlier revisions of this package wrapped Go's goexperiment.arenas API to
// get GC-free allocation of cache values.  That doesn't fit this design: the
// arena here is a single flat byte buffer addressed by byte offset, not a
// bump allocator for Go values, and gating a whole package behind a build
// tag most toolchains don't even enable is not something a production cache
// should depend on.  This revision is a plain []byte with bounds-checked
// accessors instead.
//
// Concurrency
// -----------
// Arena is not thread-safe; the parent Cache is documented as single-mutator
// and callers needing concurrent access use pkg.LoadingCache, which
// serializes access with a mutex.
//
// © 2025 arena-cache authors. MIT License.
package arena

import (
	"github.com/nullcache/xorring/internal/binpack"
	"github.com/nullcache/xorring/internal/unsafehelpers"
)

// Arena is the contiguous byte buffer plus the four cursors that carve it
// into hash-head / new-region / gap / old-region / unused, per the layout
// invariant HSize <= Writer <= Oldest <= Unused <= Size.
type Arena struct {
	buf []byte

	Size   uint32
	HSize  uint32
	Writer uint32
	Oldest uint32
	Unused uint32
}

// Alloc allocates a zeroed buffer of the given size and returns a fresh,
// empty Arena over it.  It reports ok=false instead of panicking if make
// panics while allocating the buffer (see tryMake for what that covers)
// so New/Init can surface a resource-failure error
// instead of crashing the process: a resource failure is surfaced to the
// caller, while an out-of-range read against a live arena is a different,
// fatal kind of error (see cache.corrupt).
//
// size is rounded up to a multiple of binpack.InstantSize, so Size may
// exceed the requested size by up to 7 bytes. Entries are variable-length
// and packed back to back, so this does not align the expire field of
// individual entries.
func Alloc(size uint32) (a *Arena, ok bool) {
	size = unsafehelpers.AlignUp(size, binpack.InstantSize)
	buf, ok := tryMake(size)
	if !ok {
		return nil, false
	}
	hsize := ComputeHSize(size)
	if !unsafehelpers.IsPowerOfTwo(hsize) {
		return nil, false
	}
	return &Arena{
		buf:    buf,
		Size:   size,
		HSize:  hsize,
		Writer: hsize,
		Oldest: size,
		Unused: size,
	}, true
}

// tryMake allocates buf via make, recovering from any panic make raises so
// the caller gets a clean ok=false instead of a crash. The Go runtime
// reports genuine memory exhaustion as a fatal error, not a panic, and that
// is not caught here. This is the one place in the module that treats Go's
// allocator as fallible the way the original C init() treats malloc.
func tryMake(size uint32) (buf []byte, ok bool) {
	defer func() {
		if recover() != nil {
			buf, ok = nil, false
		}
	}()
	return make([]byte, size), true
}

// ComputeHSize picks the largest power of two not exceeding size/32, with a
// floor of 4.
func ComputeHSize(size uint32) uint32 {
	hsize := uint32(4)
	for hsize<<1 <= size>>5 {
		hsize <<= 1
	}
	return hsize
}

// Bytes exposes the raw backing buffer for callers that need to copy key or
// data bytes in directly (cache.Set) or hand back a borrowed slice
// (cache.Get). It must never be retained past the next mutation of the
// arena.
func (a *Arena) Bytes() []byte { return a.buf }

// inBounds reports whether reading binpack.Uint32Size bytes at pos would
// stay within the buffer. Mirrors the original's `pos > size - 4` check,
// done with widened arithmetic to sidestep unsigned underflow.
func (a *Arena) inBounds(pos uint32) bool {
	return uint64(pos)+uint64(binpack.Uint32Size) <= uint64(a.Size)
}

// ReadUint32 returns the little-endian uint32 at pos, or ok=false if pos is
// out of range. Callers treat ok=false as arena corruption (see
// cache.corrupt).
func (a *Arena) ReadUint32(pos uint32) (uint32, bool) {
	if !a.inBounds(pos) {
		return 0, false
	}
	return binpack.Uint32(a.buf[pos:]), true
}

// WriteUint32 stores v little-endian at pos, reporting ok=false if pos is
// out of range.
func (a *Arena) WriteUint32(pos uint32, v uint32) bool {
	if !a.inBounds(pos) {
		return false
	}
	binpack.PutUint32(a.buf[pos:], v)
	return true
}

// Slice returns a bounds-checked, arena-backed view of n bytes starting at
// pos. The returned slice aliases the arena and is only valid until the
// next mutation.
func (a *Arena) Slice(pos, n uint32) ([]byte, bool) {
	if uint64(pos)+uint64(n) > uint64(a.Size) {
		return nil, false
	}
	return a.buf[pos : pos+n], true
}
