// Package cos holds small, dependency-free constants and helpers shared
// across the migration engine: header names, size thresholds, and the
// S3-multipart hash pattern.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package cos

import (
	"fmt"
	"regexp"
)

const (
	// GB5 is the Normal/SingleLarge boundary (5 GiB).
	GB5 = 5 * 1024 * 1024 * 1024
	// GBSplit is the segment size used for SingleLarge uploads (2 GiB).
	GBSplit = 2 * 1024 * 1024 * 1024
)

// Header names the migrator reads or writes. All header lookups are
// case-insensitive; callers are expected to hand in lower-cased maps.
const (
	HdrETag             = "etag"
	HdrContentLength    = "content-length"
	HdrContentType      = "content-type"
	HdrObjectManifest   = "x-object-manifest"
	HdrStaticLargeObj   = "x-static-large-object"
	HdrOldHash          = "x-object-meta-old-hash"
	HdrMetaPrefix       = "x-object-meta-"
	HdrContainerRead    = "x-container-read"
	HdrContainerWrite   = "x-container-write"
	HdrAccountContains  = "x-account-container-count"
	HdrAccountObjects   = "x-account-object-count"
	HdrAccountBytes     = "x-account-bytes-used"
	HdrContainerObjects = "x-container-object-count"
	HdrContainerBytes   = "x-container-bytes-used"
)

// SegmentsSuffix marks a container as an internal segments container for
// a large object; such containers are never reconciled as top-level
// containers and are excluded from top-level container listings.
const SegmentsSuffix = "_segments"

// IsSegmentsContainer reports whether name is a `<container>_segments`
// sibling container.
func IsSegmentsContainer(name string) bool {
	const n = len(SegmentsSuffix)
	return len(name) > n && name[len(name)-n:] == SegmentsSuffix
}

// SegmentsContainerName returns the implicit segments container name for
// a given container.
func SegmentsContainerName(container string) string {
	return container + SegmentsSuffix
}

// MultipartHashPattern matches an S3 multipart-upload ETag, e.g.
// "d41d8cd98f00b204e9800998ecf8427e-2" — a plain hex digest followed by
// a dash and the part count, as opposed to a whole-object MD5.
var MultipartHashPattern = regexp.MustCompile(`^\w+-\w+$`)

// IsMultipartHash reports whether hash looks like an S3 multipart ETag.
func IsMultipartHash(hash string) bool {
	return MultipartHashPattern.MatchString(hash)
}

// ToSizeIEC renders n bytes as a human IEC size string (KiB/MiB/GiB/...),
// matching the teacher's cos.ToSizeIEC used throughout audit/log output.
func ToSizeIEC(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), units[exp])
}
