// Package cmn holds the data model shared by every component of the
// migration engine: tenants, containers, object descriptors, the
// variant tag, transfer plans, and the counters aggregated across
// workers.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package cmn

import (
	"sort"
	"strings"
	"sync"
)

// Tenant is a single isolated account/namespace in the identity
// directory. Immutable for the duration of a run.
type Tenant struct {
	ID      string
	Name    string
	Enabled bool
}

// Container is a flat namespace of objects within one tenant.
type Container struct {
	Name      string
	ObjCount  int64
	ByteCount int64
	ACLRead   string // "" means absent
	ACLWrite  string // "" means absent
}

// AccountStats is a tenant-wide usage summary, returned by a gateway's
// account-level stat call so callers aggregating global counters never
// need to depend on every container listing having its ObjCount/ByteCount
// populated.
type AccountStats struct {
	Containers int64
	Objects    int64
	Bytes      int64
}

// ObjectDescriptor is the subset of an object's listing/stat response
// the migration engine needs. Headers is always lower-cased keys.
type ObjectDescriptor struct {
	Name    string
	Bytes   int64
	Hash    string
	Headers map[string]string
}

// Header looks up a lower-cased header, returning ("", false) if absent.
func (o *ObjectDescriptor) Header(name string) (string, bool) {
	v, ok := o.Headers[strings.ToLower(name)]
	return v, ok
}

// UserMeta returns every header whose key starts with metaPrefix (e.g.
// `x-object-meta-`), keyed as found in Headers (which are already
// lower-cased per the gateway contract). The result is a map and has no
// order; see SortedUserMetaKeys for deterministic iteration.
func (o *ObjectDescriptor) UserMeta(metaPrefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range o.Headers {
		if strings.HasPrefix(k, metaPrefix) {
			out[k] = v
		}
	}
	return out
}

// SortedUserMetaKeys returns UserMeta's keys in sorted order, useful for
// deterministic header-list construction in tests and logs.
func SortedUserMetaKeys(meta map[string]string) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ObjectVariant is C3's tagged dispatch value.
type ObjectVariant int

const (
	VariantNormal ObjectVariant = iota
	VariantSingleLarge
	VariantDLO
	VariantSLO
	VariantS3Multipart
)

func (v ObjectVariant) String() string {
	switch v {
	case VariantNormal:
		return "normal"
	case VariantSingleLarge:
		return "single-large"
	case VariantDLO:
		return "dlo"
	case VariantSLO:
		return "slo"
	case VariantS3Multipart:
		return "s3-multipart"
	default:
		return "unknown"
	}
}

// Decision is C4's skip/transfer outcome.
type Decision int

const (
	DecisionTransfer Decision = iota
	DecisionSkip
)

func (d Decision) String() string {
	if d == DecisionSkip {
		return "skip"
	}
	return "transfer"
}

// TransferPlan is the per-object decision record produced by
// Classify+Decide and consumed by the migrator.
type TransferPlan struct {
	Tenant    string
	Container string
	Object    string
	Variant   ObjectVariant
	Decision  Decision
	Reason    string
}

// WorkerBucket is an ordered, contiguous slice of tenants assigned to one
// worker. The union of all buckets equals the filtered tenant set and no
// two buckets share a tenant.
type WorkerBucket []Tenant

// Counters is the global, mutex-protected running total aggregated
// across every worker (Invariant: all three fields are updated together
// under the same lock so a reader never observes a torn snapshot).
type Counters struct {
	mu         sync.Mutex
	containers int64
	objects    int64
	bytes      int64
}

// Add atomically adds to all three fields.
func (c *Counters) Add(containers, objects, bytes int64) {
	c.mu.Lock()
	c.containers += containers
	c.objects += objects
	c.bytes += bytes
	c.mu.Unlock()
}

// Snapshot returns a consistent point-in-time read of all three fields.
func (c *Counters) Snapshot() (containers, objects, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.containers, c.objects, c.bytes
}

// TenantUsage maps tenant name to total account bytes used. Each tenant
// name is written by exactly one worker, so no lock is required at the
// per-key level, but the underlying map must tolerate concurrent inserts
// of distinct keys from different goroutines.
type TenantUsage struct {
	mu sync.RWMutex
	m  map[string]int64
}

// NewTenantUsage returns an empty, ready-to-use TenantUsage.
func NewTenantUsage() *TenantUsage {
	return &TenantUsage{m: make(map[string]int64)}
}

// Set records tenant's usage. Called at most once per tenant, always by
// the worker owning that tenant.
func (u *TenantUsage) Set(tenant string, bytes int64) {
	u.mu.Lock()
	u.m[tenant] = bytes
	u.mu.Unlock()
}

// TopN returns the top n tenants by usage, descending.
func (u *TenantUsage) TopN(n int) []TenantUsageEntry {
	u.mu.RLock()
	entries := make([]TenantUsageEntry, 0, len(u.m))
	for name, bytes := range u.m {
		entries = append(entries, TenantUsageEntry{Name: name, Bytes: bytes})
	}
	u.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Bytes == entries[j].Bytes {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Bytes > entries[j].Bytes
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// TenantUsageEntry is one row of a TopN report.
type TenantUsageEntry struct {
	Name  string
	Bytes int64
}
