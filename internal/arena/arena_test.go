package arena

import "testing"

func TestAllocLayout(t *testing.T) {
	a, ok := Alloc(1024)
	if !ok {
		t.Fatal("Alloc failed")
	}
	if a.Size != 1024 {
		t.Errorf("got Size=%d, want 1024", a.Size)
	}
	if a.HSize == 0 || a.HSize&(a.HSize-1) != 0 {
		t.Errorf("HSize=%d is not a nonzero power of two", a.HSize)
	}
	if a.Writer != a.HSize {
		t.Errorf("got Writer=%d, want HSize=%d", a.Writer, a.HSize)
	}
	if a.Oldest != a.Size || a.Unused != a.Size {
		t.Errorf("got Oldest=%d Unused=%d, want both %d", a.Oldest, a.Unused, a.Size)
	}
}

func TestComputeHSizeFloorAndPowerOfTwo(t *testing.T) {
	cases := []uint32{0, 1, 100, 127, 128, 1024, 1 << 20}
	for _, size := range cases {
		hsize := ComputeHSize(size)
		if hsize < 4 {
			t.Errorf("ComputeHSize(%d)=%d, want >= 4", size, hsize)
		}
		if hsize&(hsize-1) != 0 {
			t.Errorf("ComputeHSize(%d)=%d, not a power of two", size, hsize)
		}
		if hsize > size>>5 && size>>5 >= 4 {
			t.Errorf("ComputeHSize(%d)=%d exceeds size/32=%d", size, hsize, size>>5)
		}
	}
}

func TestReadWriteUint32RoundTrip(t *testing.T) {
	a, ok := Alloc(64)
	if !ok {
		t.Fatal("Alloc failed")
	}
	if !a.WriteUint32(0, 0xdeadbeef) {
		t.Fatal("WriteUint32 reported out of bounds")
	}
	v, rok := a.ReadUint32(0)
	if !rok {
		t.Fatal("ReadUint32 reported out of bounds")
	}
	if v != 0xdeadbeef {
		t.Errorf("got %#x, want %#x", v, 0xdeadbeef)
	}
}

func TestReadWriteUint32OutOfBounds(t *testing.T) {
	a, ok := Alloc(16)
	if !ok {
		t.Fatal("Alloc failed")
	}
	if _, rok := a.ReadUint32(13); rok {
		t.Error("expected ReadUint32 at size-3 to report out of bounds")
	}
	if a.WriteUint32(13, 1) {
		t.Error("expected WriteUint32 at size-3 to report out of bounds")
	}
	if _, rok := a.ReadUint32(16); rok {
		t.Error("expected ReadUint32 exactly at Size to report out of bounds")
	}
}

func TestSliceBounds(t *testing.T) {
	a, ok := Alloc(32)
	if !ok {
		t.Fatal("Alloc failed")
	}
	if s, sok := a.Slice(0, 32); !sok || len(s) != 32 {
		t.Errorf("expected a full-width slice to succeed, got ok=%v len=%d", sok, len(s))
	}
	if _, sok := a.Slice(0, 33); sok {
		t.Error("expected a slice past Size to report out of bounds")
	}
	if _, sok := a.Slice(31, 2); sok {
		t.Error("expected a slice straddling Size to report out of bounds")
	}
}

func TestBytesAliasesBuffer(t *testing.T) {
	a, ok := Alloc(8)
	if !ok {
		t.Fatal("Alloc failed")
	}
	a.WriteUint32(0, 42)
	buf := a.Bytes()
	if len(buf) != 8 {
		t.Fatalf("got len(Bytes())=%d, want 8", len(buf))
	}
	if buf[0] != 42 {
		t.Errorf("got Bytes()[0]=%d, want 42 written by WriteUint32", buf[0])
	}
	v, _ := a.ReadUint32(0)
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}
