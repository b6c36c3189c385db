// Command exposure values a Binance futures account, GMX staking and a Metamask wallet on a
// fixed interval and persists every snapshot.
//
// Usage:
//
//	exposure --config config.yaml
//	exposure --config config.yaml --once
//	exposure --setup --config config.yaml
//
// Required environment variables (or .env):
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	ARBITRUM_RPC_URL and WALLET_ADDRESS unless set in the config file
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/exposure/config"
	"github.com/vadiminshakov/exposure/internal"
	"github.com/vadiminshakov/exposure/internal/domain"
	"github.com/vadiminshakov/exposure/internal/logger"
	"github.com/vadiminshakov/exposure/internal/report"
	"github.com/vadiminshakov/exposure/internal/setup"
	"github.com/vadiminshakov/exposure/internal/web"
)

const defaultConfigPath = "config.yaml"

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	once := flag.Bool("once", false, "take a single snapshot, print it and exit")
	runSetup := flag.Bool("setup", false, "run the interactive configuration wizard")
	flag.Parse()

	if *runSetup {
		path := *configPath
		if path == "" {
			path = defaultConfigPath
		}
		if err := setup.RunTUI(path); err != nil {
			log.Fatal(err)
		}
		return
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(logger.Options{Level: conf.Log.Level, File: conf.Log.File})
	if err != nil {
		log.Fatal(err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := internal.NewApp(ctx, conf, l)
	if err != nil {
		l.Fatal("Failed to start", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			l.Warn("Failed to close connections", zap.Error(err))
		}
	}()

	if *once {
		result := app.Portfolio.RunCycle(ctx)
		fmt.Println(report.Render(result))
		if result.Status == domain.CycleFailure {
			stop()
			_ = app.Close()
			os.Exit(1)
		}
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Portfolio.Run(gctx)
	})

	if conf.Web.Addr != "" {
		server := web.NewServer(conf.Web.Addr, app.WAL, app.Portfolio, app.Events, l.Named("web"))
		g.Go(func() error {
			if conf.Web.AutocertDomain != "" {
				return server.StartWithAutoTLS(gctx, conf.Web.AutocertDomain, conf.Web.AutocertCache)
			}
			return server.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		l.Error("Stopped with error", zap.Error(err))
		return
	}
	l.Info("Shutdown complete")
}
