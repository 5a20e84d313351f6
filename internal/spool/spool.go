// Package spool manages temporary-file staging for large-object
// transfers (C5's SingleLarge and SLO variants need a whole object on
// local disk before it can be re-uploaded) and a startup sweep of any
// spool file a crashed worker left behind.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package spool

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/karrick/godirwalk"
	"github.com/lufia/iostat"

	"github.com/catalyst-cloud/objectmigrate/cmn"
)

// Spool stages object bodies to dir, a caller-managed temp area that
// concurrent workers may share; each spool file gets a unique name from
// os.CreateTemp, so workers never collide on filenames.
type Spool struct {
	dir string
}

// New returns a Spool rooted at dir. dir is created if absent.
func New(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cmn.Wrapf(err, "create spool dir %s", dir)
	}
	return &Spool{dir: dir}, nil
}

// File is a spooled object: a ReadCloser over the staged temp file that
// also deletes the file on Close, so the caller gets exactly-once
// cleanup regardless of upload success or failure.
type File struct {
	*os.File
	path string
}

// Path returns the staged file's location on disk, for diagnostics that
// need to re-read the spooled bytes directly (e.g. a checksum pass).
func (f *File) Path() string { return f.path }

// Close closes the underlying file and removes it from disk. Safe to
// call exactly once; matches the "guaranteed delete on scope exit"
// resource-discipline requirement for large-object spooling.
func (f *File) Close() error {
	cerr := f.File.Close()
	rerr := os.Remove(f.path)
	if cerr != nil {
		return cerr
	}
	if rerr != nil && !os.IsNotExist(rerr) {
		return rerr
	}
	return nil
}

// Spool copies body until EOF into a new temp file under the spool
// directory and returns it seeked to the start, ready for re-reading
// during upload. n (the expected size) neither limits nor checks the
// number of bytes copied.
func (s *Spool) Spool(body io.Reader, n int64) (*File, error) {
	f, err := os.CreateTemp(s.dir, "migrate-spool-*")
	if err != nil {
		return nil, cmn.Wrap(err, "create spool file")
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, cmn.Wrap(err, "spool copy")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, cmn.Wrap(err, "seek spool file")
	}

	return &File{File: f, path: f.Name()}, nil
}

// Checksum computes an xxhash of a staged file's contents, purely as a
// local diagnostic aid surfaced in verbose audit output — never
// consulted by the Skip Decider, which compares the gateway-reported
// ETag/hash instead.
func Checksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, cmn.Wrap(err, "open for checksum")
	}
	defer f.Close()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return 0, cmn.Wrap(err, "checksum copy")
	}
	return h.Sum64(), nil
}

// SweepOrphans walks dir (a spool directory from a prior, possibly
// crashed, run) and removes any leftover "migrate-spool-*" file older
// than maxAge. Intended to be run once at process startup before
// workers begin.
func SweepOrphans(dir string, maxAge time.Duration) (removed int, err error) {
	now := time.Now()
	cutoff := now.Add(-maxAge)

	err = godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			name := filepath.Base(path)
			if len(name) < len("migrate-spool-") || name[:len("migrate-spool-")] != "migrate-spool-" {
				return nil
			}
			info, statErr := os.Stat(path)
			if statErr != nil {
				return nil
			}
			if info.ModTime().After(cutoff) {
				return nil
			}
			if rmErr := os.Remove(path); rmErr == nil {
				removed++
			}
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil && os.IsNotExist(err) {
		return removed, nil
	}
	return removed, cmn.Wrap(err, "sweep spool dir")
}

// IOStatSample is one lufia/iostat reading for one device (the spool
// device among them), surfaced through internal/telemetry so an operator can tell whether a
// slow run is I/O-bound on the spool disk rather than network-bound.
type IOStatSample struct {
	Device       string
	ReadBytes    uint64
	WrittenBytes uint64
}

// SampleIOStat returns the current iostat counters for every device; it
// does not single out the device backing the spool directory.
func SampleIOStat() ([]IOStatSample, error) {
	drives, err := iostat.ReadDriveStats()
	if err != nil {
		return nil, cmn.Wrap(err, "read iostat")
	}
	samples := make([]IOStatSample, 0, len(drives))
	for _, d := range drives {
		samples = append(samples, IOStatSample{
			Device:       d.Name,
			ReadBytes:    uint64(d.BytesRead),
			WrittenBytes: uint64(d.BytesWritten),
		})
	}
	return samples, nil
}
