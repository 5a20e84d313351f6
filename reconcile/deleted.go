// Package reconcile implements C7's two audit modes: deleted-sweep
// (did a migrated container/object vanish from its source region?) and
// duplicate-collision (does a container name collide across two source
// regions?).
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package reconcile

import (
	"context"
	"fmt"

	"github.com/tidwall/buntdb"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
	"github.com/catalyst-cloud/objectmigrate/gateway"
)

// Action selects report-only vs. apply-the-fix for both reconcile
// modes.
type Action int

const (
	ActionReport Action = iota
	ActionApply
)

// Finding is one reconcile observation: a container or object that no
// longer exists on its claimed source region.
type Finding struct {
	Container string
	Object    string // empty for a container-level finding
	Region    string
	Applied   bool // true if Action==ActionApply and the delete/rename succeeded
	Err       error
}

// DeletedSweep audits every container in migration (the migration-side
// gateway) against source, a set of per-region source gateways keyed by
// region name. regionOrder fixes the probe order so "first match wins"
// (spec assumption: a container name appears in at most one source
// region) is deterministic and a second match can be logged as a
// warning rather than silently ignored.
//
// An in-memory buntdb index of container -> owning region is written
// as regions are probed. It is local to this call and closed on return;
// nothing reads it back, so every call probes every region afresh.
func DeletedSweep(ctx context.Context, migration gateway.Gateway, source map[string]gateway.Gateway, regionOrder []string, action Action, warnf func(format string, args ...interface{})) ([]Finding, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, cmn.Wrap(err, "open region index")
	}
	defer db.Close()

	containers, err := migration.ListContainers(ctx, "")
	if err != nil {
		return nil, cmn.Wrap(err, "list migration containers")
	}

	var findings []Finding
	for _, c := range containers {
		if cos.IsSegmentsContainer(c.Name) {
			continue
		}

		owner, secondOwner := probeOwner(ctx, source, regionOrder, c.Name)
		if secondOwner != "" {
			warnf("container %s claimed by both region %s and region %s; using %s", c.Name, owner, secondOwner, owner)
		}

		if owner == "" {
			f := Finding{Container: c.Name}
			if action == ActionApply {
				if err := migration.DeleteContainer(ctx, "", c.Name); err != nil {
					f.Err = cmn.Wrapf(err, "delete container %s", c.Name)
				} else {
					f.Applied = true
				}
			}
			findings = append(findings, f)
			continue
		}

		_ = db.Update(func(tx *buntdb.Tx) error {
			_, _, err := tx.Set(c.Name, owner, nil)
			return err
		})

		objFindings, err := sweepObjects(ctx, migration, source[owner], owner, c.Name, action)
		if err != nil {
			return nil, cmn.Wrapf(err, "sweep objects in %s", c.Name)
		}
		findings = append(findings, objFindings...)
	}

	return findings, nil
}

// probeOwner checks every region in regionOrder for a container, and
// returns the first owner along with a second owner if any later region
// also claims it (so the caller can warn instead of silently assuming
// uniqueness).
func probeOwner(ctx context.Context, source map[string]gateway.Gateway, regionOrder []string, container string) (owner, secondOwner string) {
	for _, region := range regionOrder {
		gw, ok := source[region]
		if !ok {
			continue
		}
		if _, err := gw.StatContainer(ctx, "", container); err == nil {
			if owner == "" {
				owner = region
			} else {
				secondOwner = region
				return
			}
		}
	}
	return
}

func sweepObjects(ctx context.Context, migration, owner gateway.Gateway, region, container string, action Action) ([]Finding, error) {
	objects, err := migration.ListObjects(ctx, "", container)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	var missing []string
	for _, obj := range objects {
		if _, err := owner.StatObject(ctx, "", container, obj.Name); err == cmn.ErrNotFound {
			missing = append(missing, obj.Name)
		} else if err != nil {
			findings = append(findings, Finding{Container: container, Object: obj.Name, Region: region, Err: err})
		}
	}

	for _, name := range missing {
		f := Finding{Container: container, Object: name, Region: region}
		if action == ActionApply {
			if err := migration.DeleteObject(ctx, "", container, name); err != nil {
				f.Err = cmn.Wrapf(err, "delete object %s/%s", container, name)
			} else {
				f.Applied = true
			}
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// String renders a Finding the way the original swift-check-deleted.py
// printed its report lines.
func (f Finding) String() string {
	if f.Object == "" {
		return fmt.Sprintf("nonexistent container: %s", f.Container)
	}
	return fmt.Sprintf("nonexistent object: %s/%s (region %s)", f.Container, f.Object, f.Region)
}
