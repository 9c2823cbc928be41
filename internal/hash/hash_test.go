package hash

import "testing"

func TestBucketInRange(t *testing.T) {
	const hsize = 256
	keys := [][]byte{
		[]byte("example.com."),
		[]byte("a"),
		[]byte(""),
		[]byte("very-long-key-that-exercises-the-rolling-hash-loop-body-many-times"),
	}
	for _, k := range keys {
		b := Bucket(k, hsize)
		if b >= hsize {
			t.Errorf("Bucket(%q, %d)=%d, want < %d", k, hsize, b, hsize)
		}
		if b%4 != 0 {
			t.Errorf("Bucket(%q, %d)=%d, want a multiple of 4 (uint32-aligned)", k, hsize, b)
		}
	}
}

func TestBucketDeterministic(t *testing.T) {
	key := []byte("repeatable")
	a := Bucket(key, 1024)
	b := Bucket(key, 1024)
	if a != b {
		t.Errorf("Bucket is not deterministic for the same key/hsize: got %d and %d", a, b)
	}
}

func TestBucketDiffersAcrossHSize(t *testing.T) {
	key := []byte("same-key")
	small := Bucket(key, 64)
	large := Bucket(key, 1024)
	if small >= 64 {
		t.Errorf("Bucket(%q, 64)=%d out of range", key, small)
	}
	if large >= 1024 {
		t.Errorf("Bucket(%q, 1024)=%d out of range", key, large)
	}
	if small == large {
		t.Errorf("Bucket(%q) = %d for both hsize 64 and 1024, want different slots", key, small)
	}
}
