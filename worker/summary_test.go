package worker_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/worker"
)

func sampleReport() *worker.Report {
	return &worker.Report{
		RunID:      "abc123",
		Elapsed:    90 * time.Second,
		Containers: 5,
		Objects:    500,
		Bytes:      1 << 30,
		TopTenants: []cmn.TenantUsageEntry{
			{Name: "tenant-a", Bytes: 1 << 20},
			{Name: "tenant-b", Bytes: 1 << 10},
		},
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	if err := sampleReport().WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		RunID      string `json:"run_id"`
		Containers int64  `json:"containers"`
		TopTenants []struct {
			Name  string `json:"name"`
			Bytes int64  `json:"bytes"`
		} `json:"top_tenants"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.RunID != "abc123" || decoded.Containers != 5 {
		t.Fatalf("unexpected decoded summary: %+v", decoded)
	}
	if len(decoded.TopTenants) != 2 || decoded.TopTenants[0].Name != "tenant-a" {
		t.Fatalf("unexpected top tenants: %+v", decoded.TopTenants)
	}
}

func TestWriteMsgpProducesNonEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.msgp")
	if err := sampleReport().WriteMsgp(path); err != nil {
		t.Fatalf("WriteMsgp: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected a non-empty msgp summary file")
	}
}
