package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"resolveit/backend/internal/api/handler"
	"resolveit/backend/internal/cli/config"
	"resolveit/backend/internal/complaint"
	"resolveit/backend/internal/escalation"
	"resolveit/backend/internal/eventhub"
	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		dbCfg       config.Database
		redisCfg    config.Redis
		authCfg     config.Auth
		workflowCfg config.Workflow
		escCfg      config.Escalation
		tgCfg       config.Telegram
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, dbCfg.Flags()...)
	flags = append(flags, redisCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, workflowCfg.Flags()...)
	flags = append(flags, escCfg.Flags()...)
	flags = append(flags, tgCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the HTTP API, escalation worker and alerting",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			wf, err := workflowCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load workflow")
			}
			issuer, err := authCfg.Configure()
			if err != nil {
				return err
			}
			uploads, err := serverCfg.Uploads()
			if err != nil {
				return err
			}

			store, closeDB, err := dbCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize storage")
			}
			defer closeDB()

			rdb, err := redisCfg.Configure(ctx)
			if err != nil {
				return err
			}
			var broker eventhub.Broker
			if rdb != nil {
				defer func() {
					if err := rdb.Close(); err != nil {
						logging.Default().Error("failed to close redis", "error", err.Error())
					}
				}()
				broker = storage.NewRedisBroker(rdb)
				logging.Default().Info("Redis event broker enabled")
			}

			svc := complaint.NewService(store, wf)
			hub := eventhub.NewManagerService(broker)
			publishers := complaint.MultiPublisher{hub}

			bot, err := tgCfg.Configure(svc)
			if err != nil {
				return err
			}
			if bot != nil {
				publishers = append(publishers, bot.Notifier)
				logging.Default().Info("Telegram alerts enabled", "chats", len(bot.Notifier.ChatIDs))
			}
			svc.Publisher = publishers

			escConfig := escCfg.Configure()
			escSvc := escalation.NewService(store, wf, svc, escConfig)
			if rdb != nil {
				escSvc.Stats = escalation.NewRedisStatsStore(rdb)
			}
			worker := escalation.NewWorker(escSvc, escConfig.Interval)

			h := handler.NewHandler(svc, issuer, uploads)
			h.Escalation = escSvc
			h.Worker = worker
			h.Hub = hub
			h.AllowedOrigins = serverCfg.AllowedOrigins()

			server := &http.Server{
				Addr:              serverCfg.Addr(),
				Handler:           h.Router(),
				ReadHeaderTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return hub.Run(gctx)
			})

			if escConfig.Enabled {
				worker.Start(gctx)
				defer worker.Stop()
				logging.Default().Info("Auto-escalation enabled",
					"interval", escConfig.Interval, "grace", escConfig.Grace, "unresolved_after", escConfig.UnresolvedAfter)
			}

			if bot != nil {
				g.Go(func() error {
					return bot.Run(gctx)
				})
			}

			g.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", server.Addr, "workflow", wf.Name)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server", goerr.V("addr", server.Addr))
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				logging.Default().Info("Shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}
			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
