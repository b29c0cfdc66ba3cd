package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/onramp/pkg/cli/config"
	httpctrl "github.com/secmon-lab/onramp/pkg/controller/http"
	"github.com/secmon-lab/onramp/pkg/service/avatar"
	"github.com/secmon-lab/onramp/pkg/service/matchmaker"
	"github.com/secmon-lab/onramp/pkg/service/notify"
	"github.com/secmon-lab/onramp/pkg/service/worker"
	"github.com/secmon-lab/onramp/pkg/usecase"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
	"github.com/secmon-lab/onramp/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var baseURL string
	var configPath string
	var avatarBucket string
	var useCheckpoints bool
	var repoCfg config.Repository
	var slackCfg config.Slack
	var dirCfg config.Directory

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ONRAMP_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL for pair-up action links (e.g., https://your-domain.com)",
			Sources:     cli.EnvVars("ONRAMP_BASE_URL"),
			Destination: &baseURL,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to onboarding configuration TOML file",
			Required:    true,
			Sources:     cli.EnvVars("ONRAMP_CONFIG"),
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "avatar-bucket",
			Usage:       "GCS bucket for profile photo storage",
			Sources:     cli.EnvVars("ONRAMP_AVATAR_BUCKET"),
			Destination: &avatarBucket,
		},
		&cli.BoolFlag{
			Name:        "scheduler-checkpoints",
			Usage:       "Persist scheduler run markers so restarts do not repeat a day's delivery",
			Sources:     cli.EnvVars("ONRAMP_SCHEDULER_CHECKPOINTS"),
			Destination: &useCheckpoints,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, dirCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start onboarding schedulers and ops HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			appCfg, err := config.LoadAppConfiguration(configPath)
			if err != nil {
				return goerr.Wrap(err, "failed to load onboarding configuration")
			}
			onboarding := appCfg.ToDomainConfig()

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack service")
			}
			notifier := notify.NewRetryNotifier(slackSvc)

			directory, err := dirCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize directory client")
			}

			ucOpts := []usecase.Option{
				usecase.WithDirectory(directory),
				usecase.WithNotifier(notifier),
				usecase.WithQuestions(onboarding.Questions),
			}

			if avatarBucket != "" {
				avatars, err := avatar.New(ctx, avatarBucket)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize avatar store")
				}
				defer safe.Close(ctx, avatars)
				ucOpts = append(ucOpts, usecase.WithAvatarStore(avatars))
				logging.Default().Info("Avatar storage enabled", "bucket", avatarBucket)
			} else {
				logging.Default().Info("Avatar bucket not configured, profile photos will not be stored")
			}

			uc := usecase.New(repo, ucOpts...)

			var workerOpts []worker.Option
			if useCheckpoints {
				workerOpts = append(workerOpts, worker.WithCheckpoints(repo.Checkpoint()))
				logging.Default().Info("Scheduler checkpoints enabled")
			}

			matcherOpts := []matchmaker.Option{}
			if d := onboarding.PairUp.RetentionThresholdDays; d > 0 {
				matcherOpts = append(matcherOpts, matchmaker.WithRetentionThreshold(time.Duration(d)*24*time.Hour))
			}
			matcher := matchmaker.New(matcherOpts...)

			pairUpOpts := workerOpts
			if h := onboarding.PairUp.IntervalHours; h > 0 {
				pairUpOpts = append(pairUpOpts, worker.WithInterval(time.Duration(h)*time.Hour))
			}

			workers := []worker.Worker{
				worker.NewRosterWorker(uc.Roster, dirCfg.SecurityGroup(), dirCfg.AppID(), workerOpts...),
				worker.NewLearningPlanWorker(repo, notifier, onboarding.LearningWeeks, workerOpts...),
				worker.NewSurveyWorker(repo, notifier, onboarding.Survey, workerOpts...),
				worker.NewPairUpWorker(repo, notifier, matcher, baseURL, pairUpOpts...),
			}

			for _, wk := range workers {
				if err := wk.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start scheduler")
				}
			}

			handler := httpctrl.New(
				httpctrl.WithWorkers(workers...),
				httpctrl.WithSyncTrigger(func(ctx context.Context) error {
					if _, err := uc.Roster.Reconcile(ctx, dirCfg.SecurityGroup()); err != nil {
						return err
					}
					if appID := dirCfg.AppID(); appID != "" {
						if _, err := uc.Roster.InstallPending(ctx, appID); err != nil {
							return err
						}
					}
					return nil
				}),
			)

			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(sigCtx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				logging.Default().Info("Shutting down")

				// Stop schedulers before the HTTP surface so /api/status
				// never reports a half-stopped loop
				for _, wk := range workers {
					wk.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}

			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
