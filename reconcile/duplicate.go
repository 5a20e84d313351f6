package reconcile

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/gateway"
)

// DuplicateFinding is one colliding container name across two regions.
type DuplicateFinding struct {
	Container string
	RegionA   string
	RegionB   string
	Renamed   bool
	Err       error
}

func (f DuplicateFinding) String() string {
	return fmt.Sprintf("duplicate container %q in regions %s and %s", f.Container, f.RegionA, f.RegionB)
}

// DuplicateCollision audits two same-tenant source regions for
// container-name collisions. regionSuffix maps a region name to the
// suffix appended when renaming (e.g. "nz-por-1" -> "por"), matching the
// original tooling's REGION_SUFFIX_MAP.
func DuplicateCollision(ctx context.Context, regionA, regionB string, gwA, gwB gateway.Gateway, regionSuffix map[string]string, action Action) ([]DuplicateFinding, error) {
	containersA, err := gwA.ListContainers(ctx, "")
	if err != nil {
		return nil, cmn.Wrapf(err, "list containers in %s", regionA)
	}
	containersB, err := gwB.ListContainers(ctx, "")
	if err != nil {
		return nil, cmn.Wrapf(err, "list containers in %s", regionB)
	}

	// A cuckoo filter over region B's names gives O(1) expected-time
	// membership testing for the intersection pass below, which matters
	// once a tenant has tens of thousands of containers per region.
	filter := cuckoo.NewFilter(nextPow2(uint(len(containersB))))
	for _, c := range containersB {
		filter.InsertUnique([]byte(c.Name))
	}
	bNames := make(map[string]struct{}, len(containersB))
	for _, c := range containersB {
		bNames[c.Name] = struct{}{}
	}

	var findings []DuplicateFinding
	for _, c := range containersA {
		if !filter.Lookup([]byte(c.Name)) {
			continue
		}
		if _, exact := bNames[c.Name]; !exact {
			continue // filter false positive
		}

		finding := DuplicateFinding{Container: c.Name, RegionA: regionA, RegionB: regionB}
		if action == ActionApply {
			if err := renameAndCopy(ctx, c.Name, regionA, regionB, gwA, gwB, regionSuffix); err != nil {
				finding.Err = err
			} else {
				finding.Renamed = true
			}
		}
		findings = append(findings, finding)
	}
	return findings, nil
}

func renameAndCopy(ctx context.Context, name, regionA, regionB string, gwA, gwB gateway.Gateway, regionSuffix map[string]string) error {
	if err := renameOneRegion(ctx, name, regionA, gwA, regionSuffix); err != nil {
		return cmn.Wrapf(err, "rename in %s", regionA)
	}
	if err := renameOneRegion(ctx, name, regionB, gwB, regionSuffix); err != nil {
		return cmn.Wrapf(err, "rename in %s", regionB)
	}
	return nil
}

// renameOneRegion reproduces the original rename_container: create
// `<name>-<suffix>` if absent, then server-side copy every object into
// it, skipping objects already present. The old container is
// intentionally left in place (teardown is out of scope, matching the
// original's commented-out delete).
func renameOneRegion(ctx context.Context, name, region string, gw gateway.Gateway, regionSuffix map[string]string) error {
	suffix, ok := regionSuffix[region]
	if !ok {
		return errors.Errorf("no configured rename suffix for region %s", region)
	}
	newName := name + "-" + suffix

	if _, err := gw.StatContainer(ctx, "", newName); err == cmn.ErrNotFound {
		if err := gw.PostContainer(ctx, "", newName, nil); err != nil {
			return cmn.Wrapf(err, "create %s", newName)
		}
	} else if err != nil {
		return cmn.Wrapf(err, "stat %s", newName)
	}

	objects, err := gw.ListObjects(ctx, "", name)
	if err != nil {
		return cmn.Wrapf(err, "list objects in %s", name)
	}

	for _, obj := range objects {
		if _, err := gw.StatObject(ctx, "", newName, obj.Name); err == nil {
			continue // already copied
		}
		if err := gw.CopyWithin(ctx, "", name, obj.Name, newName, obj.Name); err != nil {
			return cmn.Wrapf(err, "copy %s/%s to %s", name, obj.Name, newName)
		}
	}
	return nil
}

func nextPow2(n uint) uint {
	if n < 1024 {
		return 1024
	}
	p := uint(1)
	for p < n {
		p <<= 1
	}
	return p
}
