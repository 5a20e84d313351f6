// Package tenant implements C2: resolving the full tenant list against
// an include/exclude filter, ensuring the migration role is granted on
// every selected tenant, and partitioning the result into per-worker
// buckets.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package tenant

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/identity"
)

// FilterKind tags which variant of Filter is populated, mirroring the
// tagged-union dispatch the migration engine uses for object variants.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterInclude
	FilterExclude
	FilterIncludeFile
	FilterExcludeFile
)

// Filter selects a subset of the full tenant directory. Exactly one of
// Names/Path is meaningful, determined by Kind.
type Filter struct {
	Kind  FilterKind
	Names []string // FilterInclude / FilterExclude
	Path  string    // FilterIncludeFile / FilterExcludeFile
}

// resolvedSet returns the filter's name set, reading Path if this is a
// file-backed filter. Returns cmn.ErrInvalidTenantFilter if Path cannot
// be read.
func (f Filter) resolvedSet() (map[string]struct{}, error) {
	switch f.Kind {
	case FilterNone:
		return nil, nil
	case FilterInclude, FilterExclude:
		return toSet(f.Names), nil
	case FilterIncludeFile, FilterExcludeFile:
		names, err := readLines(f.Path)
		if err != nil {
			return nil, cmn.Wrapf(cmn.ErrInvalidTenantFilter, "read %s: %v", f.Path, err)
		}
		return toSet(names), nil
	default:
		return nil, cmn.ErrInvalidTenantFilter
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.TrimSpace(n)] = struct{}{}
	}
	return set
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// includes reports whether tenant name passes f.
func (f Filter) includes(name string, set map[string]struct{}) bool {
	switch f.Kind {
	case FilterNone:
		return true
	case FilterInclude, FilterIncludeFile:
		_, ok := set[name]
		return ok
	case FilterExclude, FilterExcludeFile:
		_, ok := set[name]
		return !ok
	default:
		return false
	}
}

// Directory lists the full tenant set. In production this is backed by
// Keystone's project list; tests supply a static slice.
type Directory interface {
	ListTenants(ctx context.Context) ([]cmn.Tenant, error)
}

// Planner resolves the filtered, role-verified tenant set and
// partitions it into worker buckets.
type Planner struct {
	Directory Directory
	Roles     *identity.Directory
	UserID    string // the migrator's own Keystone user ID, used for role grants
}

// Plan resolves dir's tenants against filter, grants identity's
// MigrationRole on every selected, enabled tenant that doesn't already
// have it, and returns the filtered set. Returns cmn.ErrInvalidTenantFilter
// if filter cannot be resolved, or the first role-grant failure
// encountered (fatal: the caller should abort the whole run rather than
// silently skip a tenant it cannot act on).
func (p *Planner) Plan(ctx context.Context, filter Filter) ([]cmn.Tenant, error) {
	set, err := filter.resolvedSet()
	if err != nil {
		return nil, err
	}

	all, err := p.Directory.ListTenants(ctx)
	if err != nil {
		return nil, cmn.Wrap(err, "list tenants")
	}

	if filter.Kind == FilterInclude || filter.Kind == FilterIncludeFile {
		if err := checkInvalidIncludes(set, all); err != nil {
			return nil, err
		}
	}

	selected := make([]cmn.Tenant, 0, len(all))
	for _, t := range all {
		if !t.Enabled {
			continue
		}
		if !filter.includes(t.Name, set) {
			continue
		}
		selected = append(selected, t)
	}

	if p.Roles != nil {
		for _, t := range selected {
			has, err := p.Roles.CheckMembership(ctx, t.ID, p.UserID, identity.MigrationRole)
			if err != nil {
				return nil, cmn.Wrapf(err, "check membership for tenant %s", t.Name)
			}
			if has {
				continue
			}
			isAdmin, err := p.Roles.CheckMembership(ctx, t.ID, p.UserID, identity.AdminRole)
			if err != nil {
				return nil, cmn.Wrapf(err, "check admin membership for tenant %s", t.Name)
			}
			if isAdmin {
				continue
			}
			if err := p.Roles.GrantRole(ctx, t.ID, p.UserID, identity.MigrationRole); err != nil {
				return nil, cmn.Wrapf(err, "grant migration role on tenant %s", t.Name)
			}
		}
	}

	return selected, nil
}

// checkInvalidIncludes returns cmn.ErrInvalidTenantFilter naming every
// included tenant name that does not exist in the directory, mirroring
// the original tooling's _get_tenants_group, which treats an unknown
// include name as fatal rather than silently dropping it.
func checkInvalidIncludes(set map[string]struct{}, all []cmn.Tenant) error {
	known := make(map[string]struct{}, len(all))
	for _, t := range all {
		known[t.Name] = struct{}{}
	}

	var invalid []string
	for name := range set {
		if _, ok := known[name]; !ok {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	sort.Strings(invalid)
	return cmn.Wrapf(cmn.ErrInvalidTenantFilter, "unknown tenant(s): %s", strings.Join(invalid, ", "))
}

// Partition splits tenants into at most n contiguous buckets
// (ceil(len/n) tenants per bucket, last bucket may be smaller), matching
// the original tooling's _chunks partitioning used to hand each worker
// process a disjoint slice of the tenant list.
func Partition(tenants []cmn.Tenant, n int) []cmn.WorkerBucket {
	if n <= 0 {
		n = 1
	}
	if len(tenants) == 0 {
		return nil
	}

	size := (len(tenants) + n - 1) / n
	buckets := make([]cmn.WorkerBucket, 0, n)
	for i := 0; i < len(tenants); i += size {
		end := i + size
		if end > len(tenants) {
			end = len(tenants)
		}
		bucket := make(cmn.WorkerBucket, end-i)
		copy(bucket, tenants[i:end])
		buckets = append(buckets, bucket)
	}
	return buckets
}
