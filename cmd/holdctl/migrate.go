package main

import (
	"context"
	"fmt"
	"time"

	"staybook/db/migrations"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"

	"ariga.io/atlas-go-sdk/atlasexec"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var (
		atlasBin string
		dryRun   bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations with atlas",
		Long: `Apply the embedded migration directory to the database named by DB_* variables.

Requires the atlas binary on PATH (or --atlas). After editing a migration run
"atlas migrate hash --dir file://db/migrations" so atlas.sum matches.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			workdir, err := atlasexec.NewWorkingDir(atlasexec.WithMigrations(migrations.FS()))
			if err != nil {
				return errs.Wrap(err, "prepare migration dir")
			}
			defer workdir.Close()

			client, err := atlasexec.NewClient(workdir.Path(), atlasBin)
			if err != nil {
				return errs.Wrap(err, "atlas client")
			}

			status, err := client.MigrateStatus(ctx, &atlasexec.MigrateStatusParams{
				URL: cfg.DB.BuildDSN(),
			})
			if err != nil {
				return errs.Wrap(err, "migrate status")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current version %q, %d pending\n", status.Current, len(status.Pending))

			if dryRun || len(status.Pending) == 0 {
				return nil
			}

			res, err := client.MigrateApply(ctx, &atlasexec.MigrateApplyParams{
				URL: cfg.DB.BuildDSN(),
			})
			if err != nil {
				return errs.Wrap(err, "migrate apply")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations, now at %q\n", len(res.Applied), res.Target)
			return nil
		},
	}

	cmd.Flags().StringVar(&atlasBin, "atlas", "atlas", "path to the atlas binary")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report pending migrations without applying them")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")

	return cmd
}
