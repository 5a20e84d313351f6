// Command migrate is the primary migration CLI: resolve tenants, grant
// the migration role where needed, partition into worker buckets, and
// run either a stat-only inventory pass or a full copy.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
	"github.com/catalyst-cloud/objectmigrate/gateway"
	"github.com/catalyst-cloud/objectmigrate/gateway/s3gw"
	"github.com/catalyst-cloud/objectmigrate/gateway/swiftgw"
	"github.com/catalyst-cloud/objectmigrate/identity"
	"github.com/catalyst-cloud/objectmigrate/internal/telemetry"
	"github.com/catalyst-cloud/objectmigrate/tenant"
	"github.com/catalyst-cloud/objectmigrate/worker"
)

func main() {
	app := cli.NewApp()
	app.Name = "migrate"
	app.Usage = "migrate Swift/S3 tenant data between object stores"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "user", Usage: "TENANT:USER running the migration"},
		cli.StringFlag{Name: "region", Usage: "source region name"},
		cli.StringFlag{Name: "host", Usage: "target storage host"},
		cli.IntFlag{Name: "port", Usage: "target storage port", Value: 443},
		cli.StringFlag{Name: "authurl", Usage: "Keystone v3 auth URL"},
		cli.StringFlag{Name: "auth-token", Usage: "bearer token authorizing this run"},
		cli.StringFlag{Name: "role", Value: "admin", Usage: "not used: the planner checks for admin and always grants the swift-migrate role"},
		cli.StringFlag{Name: "act", Value: "stat", Usage: "stat|copy"},
		cli.BoolFlag{Name: "verbose"},
		cli.IntFlag{Name: "concurrency", Value: 4, Usage: "number of parallel tenant-bucket workers"},
		cli.StringFlag{Name: "default-storage", Value: "swift", Usage: "rgw|swift"},
		cli.StringSliceFlag{Name: "include-tenants", Usage: "restrict to these tenant names"},
		cli.StringSliceFlag{Name: "exclude-tenants", Usage: "exclude these tenant names"},
		cli.StringFlag{Name: "include-tenants-file"},
		cli.StringFlag{Name: "exclude-tenants-file"},
		cli.StringFlag{Name: "audit-dir", Value: ".", Usage: "directory for per-worker audit files"},
		cli.StringFlag{Name: "spool-dir", Value: os.TempDir(), Usage: "directory for large-object staging"},
		cli.StringFlag{Name: "metrics-addr", Usage: "host:port to serve /metrics on for the run duration"},
		cli.StringFlag{Name: "summary-json", Usage: "write the run summary as JSON to this path"},
		cli.StringFlag{Name: "summary-msgp", Usage: "write the run summary as MessagePack to this path"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx := context.Background()

	level := telemetry.LevelInfo
	if c.Bool("verbose") {
		level = telemetry.LevelVerbose
	}
	logger := telemetry.New(level)

	filter, err := resolveFilter(c)
	if err != nil {
		logger.Errorf("invalid tenant filter: %v", err)
		os.Exit(1)
	}

	directory := identity.NewDirectory(c.String("authurl"), c.String("auth-token"))
	planner := &tenant.Planner{
		Directory: directory, // Directory satisfies tenant.Directory via ListTenants (Keystone /projects)
		Roles:     directory,
		UserID:    c.String("user"),
	}

	selected, err := planner.Plan(ctx, filter)
	if err != nil {
		logger.Errorf("tenant planning failed: %v", err)
		os.Exit(1)
	}

	concurrency := c.Int("concurrency")
	buckets := tenant.Partition(selected, concurrency)

	var metrics *telemetry.Metrics
	if addr := c.String("metrics-addr"); addr != "" {
		metrics = telemetry.NewMetrics()
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, addr); err != nil {
				logger.Warnf("metrics server: %v", err)
			}
		}()
	}

	act := worker.ActStat
	if c.String("act") == "copy" {
		act = worker.ActCopy
	}

	cfg := worker.Config{
		Act:      act,
		Verbose:  c.Bool("verbose"),
		SpoolDir: c.String("spool-dir"),
		AuditDir: c.String("audit-dir"),
		Log:      logger,
		Metrics:  metrics,
		Gateways: gatewayFactory(c),
	}

	report, err := worker.Run(ctx, buckets, cfg)
	if err != nil {
		logger.Errorf("run failed: %v", err)
		os.Exit(1)
	}

	printReport(report)

	if path := c.String("summary-json"); path != "" {
		if err := report.WriteJSON(path); err != nil {
			logger.Warnf("write summary json: %v", err)
		}
	}
	if path := c.String("summary-msgp"); path != "" {
		if err := report.WriteMsgp(path); err != nil {
			logger.Warnf("write summary msgp: %v", err)
		}
	}

	return nil
}

func resolveFilter(c *cli.Context) (tenant.Filter, error) {
	switch {
	case c.String("include-tenants-file") != "":
		return tenant.Filter{Kind: tenant.FilterIncludeFile, Path: c.String("include-tenants-file")}, nil
	case c.String("exclude-tenants-file") != "":
		return tenant.Filter{Kind: tenant.FilterExcludeFile, Path: c.String("exclude-tenants-file")}, nil
	case len(c.StringSlice("include-tenants")) > 0:
		return tenant.Filter{Kind: tenant.FilterInclude, Names: c.StringSlice("include-tenants")}, nil
	case len(c.StringSlice("exclude-tenants")) > 0:
		return tenant.Filter{Kind: tenant.FilterExclude, Names: c.StringSlice("exclude-tenants")}, nil
	default:
		return tenant.Filter{Kind: tenant.FilterNone}, nil
	}
}

// gatewayFactory builds the source/target gateway pair per tenant,
// dispatching on --default-storage for the source backend and always
// using swiftgw for the target (mirrors the original's storage-url
// branching between RGW and plain Swift clients).
func gatewayFactory(c *cli.Context) worker.GatewayFactory {
	return func(ctx context.Context, t cmn.Tenant) (source, target gateway.Gateway, release func(), err error) {
		if c.String("default-storage") == "rgw" {
			gw, err := s3gw.New(ctx, s3gw.Config{
				Region:         c.String("region"),
				ForcePathStyle: true,
			})
			if err != nil {
				return nil, nil, nil, cmn.Wrapf(err, "new s3 gateway for tenant %s", t.Name)
			}
			source = gw
		} else {
			source = swiftgw.New(swiftgw.Config{StorageURL: c.String("authurl")})
		}

		target = swiftgw.New(swiftgw.Config{
			StorageURL: fmt.Sprintf("https://%s:%d/v1/%s", c.String("host"), c.Int("port"), t.ID),
		})

		return source, target, func() {}, nil
	}
}

func printReport(r *worker.Report) {
	fmt.Printf("run %s completed in %s\n", r.RunID, r.Elapsed)
	fmt.Printf("containers=%d objects=%d bytes=%s\n", r.Containers, r.Objects, cos.ToSizeIEC(r.Bytes))
	fmt.Println("top tenants by bytes:")
	for i, e := range r.TopTenants {
		fmt.Printf("  %2d. %-32s %s\n", i+1, e.Name, cos.ToSizeIEC(e.Bytes))
	}
}
