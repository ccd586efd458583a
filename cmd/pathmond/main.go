package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/pathmond/internal/advertise"
	"github.com/dmdmdm-nz/pathmond/internal/api"
	"github.com/dmdmdm-nz/pathmond/internal/metrics"
	"github.com/dmdmdm-nz/pathmond/internal/netmon"
	"github.com/dmdmdm-nz/pathmond/internal/runtime"
	"github.com/dmdmdm-nz/pathmond/pkg/cli"
)

func main() {
	// Parse command line flags
	cfg := cli.ParseFlags()

	// Configure logging
	setLogLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})

	log.Infof("Config: Host=%s", cfg.Host)
	log.Infof("Config: Port=%d", cfg.Port)
	log.Infof("Config: LogLevel=%s", cfg.LogLevel)
	log.Infof("Config: Watcher=%s", cfg.Watcher)
	log.Infof("Config: PollInterval=%s", cfg.PollInterval)
	log.Infof("Config: Dedup=%v", cfg.Dedup)
	log.Infof("Config: Advertise=%v", cfg.Advertise)
	if cfg.ConfigFile != "" {
		log.Infof("Config: ConfigFile=%s", cfg.ConfigFile)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := netmon.SelectWatcher(cfg.Watcher, cfg.PollInterval)
	if err != nil {
		log.WithError(err).Fatal("Failed to select path watcher")
	}

	collector := metrics.New()
	monitor := netmon.NewMonitor(watcher,
		netmon.WithDedup(cfg.Dedup),
		netmon.WithMetrics(collector),
	)

	apiSvc := api.NewService(cfg.Host, cfg.Port)
	apiSvc.AttachMonitor(monitor)
	apiSvc.AttachMetrics(collector.Handler())

	// Start in dependency order: netmon → api → advertise
	super := runtime.NewSupervisor()
	super.Add("netmon", monitor.Run, monitor.Close)
	super.Add("api", apiSvc.Start, apiSvc.Close)

	if cfg.Advertise {
		if cfg.Port == 0 {
			log.Warn("Not advertising over mDNS: -port 0 picks a random port")
		} else {
			adv := advertise.NewService(cfg.Instance, cfg.Port)
			super.Add("advertise", func(ctx context.Context) error {
				// mDNS is best effort; the API stays up without it.
				if err := adv.Start(ctx); err != nil {
					log.WithError(err).Warn("mDNS advertisement unavailable")
					<-ctx.Done()
				}
				return nil
			}, adv.Close)
		}
	}

	if cfg.ConfigFile != "" {
		reloader := cli.NewReloader(os.Args[1:], cfg.ConfigFile, func(next *cli.Config) {
			applyReload(cfg, next)
		})
		super.Add("config", reloader.Start, nil)
	}

	if err := super.Start(ctx); err != nil {
		log.WithError(err).Error("Supervisor start failed")
		os.Exit(1)
	}
	if err := super.Wait(ctx); err != nil {
		log.WithError(err).Error("Supervisor wait failed")
		os.Exit(1)
	}
}

// applyReload switches the log level in place. Everything else is bound at
// startup and only logged.
func applyReload(cur, next *cli.Config) {
	if next.LogLevel != cur.LogLevel {
		setLogLevel(next.LogLevel)
		cur.LogLevel = next.LogLevel
		log.Infof("Config: LogLevel=%s", next.LogLevel)
	}
	if next.String() != cur.String() {
		log.WithField("config", next.String()).Warn("Config changes other than log-level need a restart")
	}
}

func setLogLevel(level string) {
	switch level {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
