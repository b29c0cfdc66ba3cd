package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/cli/config"
	"github.com/secmon-lab/onramp/pkg/usecase"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var repoCfg config.Repository
	var dirCfg config.Directory

	flags := []cli.Flag{}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, dirCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run one roster reconciliation pass and request pending app installs",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			directory, err := dirCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize directory client")
			}

			uc := usecase.New(repo, usecase.WithDirectory(directory))

			summary, err := uc.Roster.Reconcile(ctx, dirCfg.SecurityGroup())
			if err != nil {
				return goerr.Wrap(err, "roster reconciliation failed")
			}
			logging.Default().Info("roster reconciled",
				"group_members", summary.GroupMembers,
				"new_hires", summary.NewHires,
				"new_managers", summary.NewManagers,
				"skipped_lookups", summary.SkippedLookups)

			if appID := dirCfg.AppID(); appID != "" {
				install, err := uc.Roster.InstallPending(ctx, appID)
				if err != nil {
					return goerr.Wrap(err, "app installation pass failed")
				}
				logging.Default().Info("app installation requested",
					"requested", install.Requested,
					"installed", install.Installed,
					"conflicts", install.Conflicts,
					"failures", install.Failures)
			}

			return nil
		},
	}
}
