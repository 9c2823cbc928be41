package main

// dataset_gen.go is a tiny helper utility to generate deterministic
// key datasets for standalone benchmarking of the cache (outside `go test`).
// It emits newline-separated opaque keys which can later be passed to
// load-testers or external benchmarking suites.
//
// Usage:
//
//	go run ./tools/dataset_gen -n 1000000 -dist=zipf -style=dns -seed=42 -out keys.txt
//
// Flags:
//
//	-n       number of keys to generate (default 1e6)
//	-dist    distribution: "uniform" or "zipf" (default uniform)
//	-zipfs   Zipf s parameter (>1)  (default 1.2)
//	-zipfv   Zipf v parameter (>=1) (default 1.0)
//	-style   key shape: "hex" (a uint64 as 16 hex digits) or "dns" (variable-length
//	         dotted name + "/qtype" suffix, the shape cache.MaxKeyLen
//	         actually bounds) (default hex)
//	-seed    RNG seed (default current time)
//	-out     output file (default stdout)
//
// © 2025 arena-cache authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	cache "github.com/nullcache/xorring/pkg"
)

// dnsLabels is a small pool of realistic label fragments; dns-style keys
// are built by joining 1-4 of these with dots, giving variable-length
// names the way resolver input actually varies, rather than the
// fixed-width numeric keys the uniform/zipf generators alone would produce.
var dnsLabels = []string{
	"www", "mail", "api", "cdn", "static", "edge", "img", "assets",
	"example", "test", "corp", "internal", "prod", "staging", "dev",
	"com", "net", "org", "io", "co",
}

var qtypes = []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"}

func main() {
	var (
		n       = flag.Int("n", 1_000_000, "number of keys to generate")
		dist    = flag.String("dist", "uniform", "distribution: uniform or zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
		style   = flag.String("style", "hex", "key shape: hex or dns")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	rnd := rand.New(rand.NewSource(*seedVal))

	var gen func() uint64
	switch *dist {
	case "uniform":
		gen = rnd.Uint64
	case "zipf":
		if *zipfS <= 1.0 || *zipfV < 1.0 {
			fmt.Fprintln(os.Stderr, "zipfs must be >1 and zipfv >=1")
			os.Exit(1)
		}
		z := rand.NewZipf(rnd, *zipfS, *zipfV, ^uint64(0))
		gen = z.Uint64
	default:
		fmt.Fprintln(os.Stderr, "unknown dist:", *dist)
		os.Exit(1)
	}

	var toKey func(uint64) string
	switch *style {
	case "hex":
		// Hex-encoded rather than decimal: the cache's keys are opaque byte
		// strings, not integers, and a fixed-width hex string is a closer
		// stand-in for a packed DNS question (name + qtype + qclass) than a
		// variable-width decimal number would be.
		toKey = func(v uint64) string { return fmt.Sprintf("%016x", v) }
	case "dns":
		toKey = func(v uint64) string { return dnsKey(v) }
	default:
		fmt.Fprintln(os.Stderr, "unknown style:", *style)
		os.Exit(1)
	}

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for i := 0; i < *n; i++ {
		fmt.Fprintln(w, toKey(gen()))
	}
}

// dnsKey derives a variable-length, dotted resolver-style key from v: 1-4
// labels plus a qtype suffix, e.g. "api.static.example.com/A". v is the
// only source of randomness here (it's whatever the chosen distribution
// produced), so the same seed still reproduces the same dataset.
func dnsKey(v uint64) string {
	numLabels := 1 + int(v%4)
	labels := make([]string, numLabels)
	for i := range labels {
		labels[i] = dnsLabels[v%uint64(len(dnsLabels))]
		v /= uint64(len(dnsLabels))
	}
	qtype := qtypes[v%uint64(len(qtypes))]

	key := strings.Join(labels, ".") + "/" + qtype
	if len(key) > cache.MaxKeyLen {
		key = key[:cache.MaxKeyLen]
	}
	return key
}
