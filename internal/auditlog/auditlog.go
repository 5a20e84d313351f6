// Package auditlog writes the per-worker human-readable transcript
// (`swift-migrate-worker-NN.output`) that C8 produces alongside the
// run's aggregate summary.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package auditlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/catalyst-cloud/objectmigrate/cmn"
)

// Log is one worker's audit file. Not safe for concurrent use; each
// worker owns exactly one Log.
type Log struct {
	file *os.File
	w    *bufio.Writer
}

// Open truncates (or creates) "swift-migrate-worker-NN.output" under
// dir for worker index idx, zero-padded to width 2.
func Open(dir string, idx int) (*Log, error) {
	name := filepath.Join(dir, fmt.Sprintf("swift-migrate-worker-%02d.output", idx))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, cmn.Wrapf(err, "open audit file %s", name)
	}
	return &Log{file: f, w: bufio.NewWriter(f)}, nil
}

// Printf writes a formatted line, newline-terminated.
func (l *Log) Printf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, format+"\n", args...)
}

// Close flushes buffered output and closes the underlying file.
func (l *Log) Close() error {
	if err := l.w.Flush(); err != nil {
		l.file.Close()
		return cmn.Wrap(err, "flush audit file")
	}
	return l.file.Close()
}
