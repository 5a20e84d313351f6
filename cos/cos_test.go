package cos_test

import (
	"testing"

	"github.com/catalyst-cloud/objectmigrate/cos"
)

func TestIsSegmentsContainer(t *testing.T) {
	cases := map[string]bool{
		"mybucket_segments": true,
		"mybucket":          false,
		"_segments":         false, // no container name prefix
		"a_segments":        true,
	}
	for name, want := range cases {
		if got := cos.IsSegmentsContainer(name); got != want {
			t.Errorf("IsSegmentsContainer(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSegmentsContainerName(t *testing.T) {
	if got := cos.SegmentsContainerName("archive"); got != "archive_segments" {
		t.Errorf("got %q", got)
	}
}

func TestIsMultipartHash(t *testing.T) {
	cases := map[string]bool{
		"d41d8cd98f00b204e9800998ecf8427e-2": true,
		"d41d8cd98f00b204e9800998ecf8427e":   false,
		"":                                   false,
	}
	for hash, want := range cases {
		if got := cos.IsMultipartHash(hash); got != want {
			t.Errorf("IsMultipartHash(%q) = %v, want %v", hash, got, want)
		}
	}
}

func TestToSizeIEC(t *testing.T) {
	cases := map[int64]string{
		0:                 "0B",
		1023:              "1023B",
		1024:              "1.0KiB",
		5 * 1024 * 1024:   "5.0MiB",
		5368709120:        "5.0GiB", // cos.GB5
	}
	for n, want := range cases {
		if got := cos.ToSizeIEC(n); got != want {
			t.Errorf("ToSizeIEC(%d) = %q, want %q", n, got, want)
		}
	}
}
