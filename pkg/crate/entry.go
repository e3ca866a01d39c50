package crate

import (
	"io"
	"time"
)

// MalformedPolicy decides what happens to archive entries
// whose header cannot be read or whose name cannot be
// placed under the vendor path.
type MalformedPolicy int

const (
	// SkipMalformed treats malformed entries as absent. The
	// tar reader cannot resync after a bad header, so a bad
	// header also ends the walk.
	SkipMalformed MalformedPolicy = iota
	// FailMalformed reports the first malformed entry as a
	// read failure.
	FailMalformed
)

type Options struct {
	// Log receives the reading:/writing: lines. Nil discards them.
	Log       io.Writer
	Malformed MalformedPolicy
}

type Result struct {
	Entries   int
	Files     int
	Bytes     int64
	Checksums int
	Skipped   int
	Elapsed   time.Duration
}

func (o Options) log() io.Writer {
	if o.Log == nil {
		return io.Discard
	}
	return o.Log
}
