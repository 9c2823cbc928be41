package main

// flags.go parses arenaring-inspect's command-line flags into an options
// struct consumed by main.go.
//
// © 2025 arena-cache authors. MIT License.

import (
	"flag"
	"time"
)

type options struct {
	target           string
	json             bool
	watch            bool
	interval         time.Duration
	heapProfile      string
	goroutineProfile string
	version          bool
}

func parseFlags() *options {
	opts := &options{}

	flag.StringVar(&opts.target, "target", "http://localhost:6060", "base URL of the process to inspect")
	flag.BoolVar(&opts.json, "json", false, "print the snapshot as raw JSON instead of a formatted report")
	flag.BoolVar(&opts.watch, "watch", false, "poll the snapshot endpoint repeatedly")
	flag.DurationVar(&opts.interval, "interval", 2*time.Second, "polling interval in watch mode")
	flag.StringVar(&opts.heapProfile, "heap-profile", "", "download /debug/pprof/heap to this file and exit")
	flag.StringVar(&opts.goroutineProfile, "goroutine-profile", "", "download /debug/pprof/goroutine to this file and exit")
	flag.BoolVar(&opts.version, "version", false, "print version and exit")

	flag.Parse()
	return opts
}
