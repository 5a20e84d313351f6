// Package worker implements C8: fan out tenant buckets across N
// parallel workers, each processing its tenants strictly sequentially,
// aggregating global counters and per-tenant usage, and writing one
// audit file per worker.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package worker

import (
	"context"
	"sort"
	"time"

	"github.com/teris-io/shortid"
	"golang.org/x/sync/errgroup"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
	"github.com/catalyst-cloud/objectmigrate/gateway"
	"github.com/catalyst-cloud/objectmigrate/internal/auditlog"
	"github.com/catalyst-cloud/objectmigrate/internal/spool"
	"github.com/catalyst-cloud/objectmigrate/internal/telemetry"
	"github.com/catalyst-cloud/objectmigrate/xfer"
)

// Act selects stat (enumerate and report only) vs. copy (actually
// migrate) for a run, matching the original tool's --act flag.
type Act int

const (
	ActStat Act = iota
	ActCopy
)

// orphanSpoolMaxAge bounds how old a leftover "migrate-spool-*" file must
// be before a startup sweep removes it, so a spool file written by a
// still-running worker on a slow transfer is never mistaken for a crash
// orphan.
const orphanSpoolMaxAge = 24 * time.Hour

// GatewayFactory acquires a (source, target) gateway pair scoped to one
// tenant. When acquisition succeeds, release is called exactly once on
// every exit path of that tenant's processing, whether it succeeds or
// fails; when acquisition returns an error, release is not called.
type GatewayFactory func(ctx context.Context, tenant cmn.Tenant) (source, target gateway.Gateway, release func(), err error)

// Config is one run's full parameter set, built once in main() and
// passed by value into Run — a single struct rather than a mutable
// global, since this process is a short-lived CLI invocation, not a
// long-running daemon with a config that changes underfoot.
type Config struct {
	Act         Act
	Verbose     bool
	SpoolDir    string
	AuditDir    string
	Gateways    GatewayFactory
	Log         *telemetry.Logger
	Metrics     *telemetry.Metrics
}

// Run executes every bucket in parallel, one goroutine per bucket, and
// returns the aggregated totals once every worker has finished. The
// correlation ID is carried in the returned Report (and so in the stdout
// and summary-file output); the audit files do not include it.
func Run(ctx context.Context, buckets []cmn.WorkerBucket, cfg Config) (*Report, error) {
	runID, err := shortid.Generate()
	if err != nil {
		runID = "unknown"
	}

	if removed, sweepErr := spool.SweepOrphans(cfg.SpoolDir, orphanSpoolMaxAge); sweepErr != nil {
		cfg.Log.Warnf("sweep orphaned spool files: %v", sweepErr)
	} else if removed > 0 {
		cfg.Log.Infof("removed %d orphaned spool file(s) from a prior run", removed)
	}

	counters := &cmn.Counters{}
	usage := cmn.NewTenantUsage()

	group, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	for i, bucket := range buckets {
		i, bucket := i, bucket
		group.Go(func() error {
			if cfg.Metrics != nil {
				cfg.Metrics.ActiveWorkers.Inc()
				defer cfg.Metrics.ActiveWorkers.Dec()
			}
			return runWorker(gctx, i, bucket, cfg, counters, usage)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, cmn.Wrap(err, "worker run")
	}

	containers, objects, bytes := counters.Snapshot()
	return &Report{
		RunID:      runID,
		Elapsed:    time.Since(start),
		Containers: containers,
		Objects:    objects,
		Bytes:      bytes,
		TopTenants: usage.TopN(10),
	}, nil
}

// maxSizeTracker remembers the single largest object seen by a worker
// across all of its tenants, restoring the original stat-mode behavior
// of appending a "largest object" line at the end of the worker's audit
// file.
type maxSizeTracker struct {
	tenant, container, object string
	bytes                     int64
}

func (t *maxSizeTracker) consider(tenant, container, object string, bytes int64) {
	if bytes > t.bytes {
		*t = maxSizeTracker{tenant: tenant, container: container, object: object, bytes: bytes}
	}
}

func runWorker(ctx context.Context, idx int, bucket cmn.WorkerBucket, cfg Config, counters *cmn.Counters, usage *cmn.TenantUsage) error {
	audit, err := auditlog.Open(cfg.AuditDir, idx)
	if err != nil {
		return cmn.Wrapf(err, "worker %d", idx)
	}
	defer audit.Close()

	sp, err := spool.New(cfg.SpoolDir)
	if err != nil {
		return cmn.Wrapf(err, "worker %d spool", idx)
	}

	var tracker maxSizeTracker

	for _, t := range bucket {
		if err := processTenant(ctx, t, cfg, counters, usage, audit, sp, &tracker); err != nil {
			// Per-tenant failures are logged, never fatal to the run
			// (C8/§7: only tenant.Plan's fatal filter errors abort
			// the whole invocation before workers start).
			audit.Printf("tenant %s: failed. Reason: %v", t.Name, err)
			cfg.Log.Errorf("worker %d: tenant %s: %v", idx, t.Name, err)
		}
	}

	if cfg.Act == ActStat && tracker.bytes > 0 {
		audit.Printf("largest object: %s/%s/%s (%s)", tracker.tenant, tracker.container, tracker.object, cos.ToSizeIEC(tracker.bytes))
	}

	return nil
}

func processTenant(ctx context.Context, t cmn.Tenant, cfg Config, counters *cmn.Counters, usage *cmn.TenantUsage, audit *auditlog.Log, sp *spool.Spool, tracker *maxSizeTracker) error {
	source, target, release, err := cfg.Gateways(ctx, t)
	if err != nil {
		return cmn.Wrapf(err, "acquire gateways for tenant %s", t.Name)
	}
	defer release()

	containers, err := source.ListContainers(ctx, t.Name)
	if err != nil {
		return cmn.Wrapf(err, "list containers for tenant %s", t.Name)
	}

	stats, err := source.StatAccount(ctx, t.Name)
	if err != nil {
		return cmn.Wrapf(err, "stat account for tenant %s", t.Name)
	}
	counters.Add(stats.Containers, stats.Objects, stats.Bytes)
	usage.Set(t.Name, stats.Bytes)

	audit.Printf("tenant %s: %d containers, %d objects, %s", t.Name, len(containers), stats.Objects, cos.ToSizeIEC(stats.Bytes))

	switch cfg.Act {
	case ActStat:
		return statTenant(ctx, source, t, containers, audit, cfg.Verbose, tracker)
	case ActCopy:
		return copyTenant(ctx, source, target, t, containers, sp, audit, cfg)
	default:
		return nil
	}
}

func statTenant(ctx context.Context, source gateway.Gateway, t cmn.Tenant, containers []cmn.Container, audit *auditlog.Log, verbose bool, tracker *maxSizeTracker) error {
	for _, c := range containers {
		objects, err := source.ListObjects(ctx, t.Name, c.Name)
		if err != nil {
			audit.Printf("container %s: failed. Reason: %v", c.Name, err)
			continue
		}
		for _, obj := range objects {
			tracker.consider(t.Name, c.Name, obj.Name, obj.Bytes)
			if verbose {
				prefix := ""
				if cos.IsMultipartHash(obj.Hash) {
					prefix = "[large-object] "
				}
				audit.Printf("%s%s/%s: %s", prefix, c.Name, obj.Name, cos.ToSizeIEC(obj.Bytes))
			}
		}
	}
	return nil
}

func copyTenant(ctx context.Context, source, target gateway.Gateway, t cmn.Tenant, containers []cmn.Container, sp *spool.Spool, audit *auditlog.Log, cfg Config) error {
	migrator := &xfer.Migrator{Source: source, Target: target, Spool: sp, Log: cfg.Log}
	cmig := &xfer.ContainerMigrator{Source: source, Target: target, Migrator: migrator}

	for _, c := range containers {
		result := cmig.MigrateContainer(ctx, t.Name, c.Name)
		if result.CreateErr != nil {
			audit.Printf("container %s: failed. Reason: %v", c.Name, result.CreateErr)
			continue
		}
		for _, obj := range result.Objects {
			switch obj.State {
			case xfer.Failed:
				audit.Printf("%s/%s: failed. Reason: %s", c.Name, obj.Object, obj.Reason)
				if cfg.Metrics != nil {
					cfg.Metrics.ObjectsFailed.Inc()
				}
			case xfer.Skipped:
				audit.Printf("%s/%s: %s (%s)", c.Name, obj.Object, obj.State, obj.Variant)
				if cfg.Metrics != nil {
					cfg.Metrics.ObjectsSkipped.Inc()
				}
			default:
				audit.Printf("%s/%s: %s (%s)", c.Name, obj.Object, obj.State, obj.Variant)
				if cfg.Metrics != nil {
					cfg.Metrics.ObjectsTransferred.Inc()
					cfg.Metrics.BytesTransferred.Add(float64(obj.Bytes))
				}
			}
		}
	}
	return nil
}

// Report is the final aggregate printed after every worker joins.
type Report struct {
	RunID      string
	Elapsed    time.Duration
	Containers int64
	Objects    int64
	Bytes      int64
	TopTenants []cmn.TenantUsageEntry
}

// SortedTopTenants returns TopTenants already in descending order
// (TopN already sorts, this exists for callers that reuse Report after
// further mutation).
func (r *Report) SortedTopTenants() []cmn.TenantUsageEntry {
	out := make([]cmn.TenantUsageEntry, len(r.TopTenants))
	copy(out, r.TopTenants)
	sort.Slice(out, func(i, j int) bool { return out[i].Bytes > out[j].Bytes })
	return out
}
