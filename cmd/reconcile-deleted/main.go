// Command reconcile-deleted audits migration-side containers/objects
// against their claimed source region and optionally deletes what no
// longer exists there.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/catalyst-cloud/objectmigrate/gateway"
	"github.com/catalyst-cloud/objectmigrate/gateway/swiftgw"
	"github.com/catalyst-cloud/objectmigrate/internal/telemetry"
	"github.com/catalyst-cloud/objectmigrate/reconcile"
)

// regionEnvironments mirrors the original's ENV_REGIONS map: which
// source regions are in scope for a given deployment environment.
var regionEnvironments = map[string][]string{
	"preprod": {"test-1"},
	"prod":    {"nz-por-1", "nz_wlg_2"},
}

func main() {
	app := cli.NewApp()
	app.Name = "reconcile-deleted"
	app.Usage = "find and optionally delete migration-side data no longer present in its source region"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "env", Value: "prod", Usage: "preprod|prod"},
		cli.StringFlag{Name: "migration-url", Usage: "migration-side storage URL"},
		cli.StringFlag{Name: "migration-token"},
		cli.StringSliceFlag{Name: "region-url", Usage: "region=url, repeatable"},
		cli.StringFlag{Name: "auth-token"},
		cli.StringFlag{Name: "action", Value: "report", Usage: "report|delete"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx := context.Background()
	logger := telemetry.New(telemetry.LevelInfo)

	regions, ok := regionEnvironments[c.String("env")]
	if !ok {
		return fmt.Errorf("unknown environment %q", c.String("env"))
	}

	migration := swiftgw.New(swiftgw.Config{
		StorageURL: c.String("migration-url"),
		AuthToken:  c.String("migration-token"),
	})

	source := make(map[string]gateway.Gateway, len(regions))
	for _, pair := range c.StringSlice("region-url") {
		region, url, ok := splitPair(pair)
		if !ok {
			continue
		}
		source[region] = swiftgw.New(swiftgw.Config{StorageURL: url, AuthToken: c.String("auth-token")})
	}

	action := reconcile.ActionReport
	if c.String("action") == "delete" {
		action = reconcile.ActionApply
	}

	findings, err := reconcile.DeletedSweep(ctx, migration, source, regions, action, logger.Warnf)
	if err != nil {
		logger.Errorf("deleted sweep failed: %v", err)
		os.Exit(1)
	}

	for _, f := range findings {
		if f.Err != nil {
			fmt.Printf("%s (error: %v)\n", f, f.Err)
		} else {
			fmt.Println(f)
		}
	}
	fmt.Printf("%d findings\n", len(findings))
	return nil
}

func splitPair(s string) (key, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
