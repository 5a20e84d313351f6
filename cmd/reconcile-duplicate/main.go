// Command reconcile-duplicate audits two source regions for the same
// tenant for colliding container names and optionally renames and
// copies them apart.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/catalyst-cloud/objectmigrate/gateway/swiftgw"
	"github.com/catalyst-cloud/objectmigrate/internal/telemetry"
	"github.com/catalyst-cloud/objectmigrate/reconcile"
)

// regionSuffixes mirrors the original's REGION_SUFFIX_MAP: the suffix
// appended to a renamed container in each region.
var regionSuffixes = map[string]string{
	"nz-por-1": "por",
	"nz_wlg_2": "wlg",
}

func main() {
	app := cli.NewApp()
	app.Name = "reconcile-duplicate"
	app.Usage = "find and optionally rename colliding container names across two source regions"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "region-a", Required: true},
		cli.StringFlag{Name: "region-a-url", Required: true},
		cli.StringFlag{Name: "region-b", Required: true},
		cli.StringFlag{Name: "region-b-url", Required: true},
		cli.StringFlag{Name: "auth-token"},
		cli.StringFlag{Name: "action", Value: "report", Usage: "report|rename"},
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

	gwA := swiftgw.New(swiftgw.Config{StorageURL: c.String("region-a-url"), AuthToken: c.String("auth-token")})
	gwB := swiftgw.New(swiftgw.Config{StorageURL: c.String("region-b-url"), AuthToken: c.String("auth-token")})

	action := reconcile.ActionReport
	if c.String("action") == "rename" {
		action = reconcile.ActionApply
	}

	findings, err := reconcile.DuplicateCollision(ctx, c.String("region-a"), c.String("region-b"), gwA, gwB, regionSuffixes, action)
	if err != nil {
		logger.Errorf("duplicate-collision check failed: %v", err)
		os.Exit(1)
	}

	for _, f := range findings {
		if f.Err != nil {
			fmt.Printf("%s (error: %v)\n", f, f.Err)
		} else {
			fmt.Println(f)
		}
	}
	fmt.Printf("%d duplicates\n", len(findings))
	return nil
}
