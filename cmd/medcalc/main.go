package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medcalc/internal/capture"
	"medcalc/internal/clock"
	"medcalc/internal/config"
	appLog "medcalc/internal/log"
	"medcalc/internal/schedule"
	"medcalc/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("medcalc starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if !flags.debug {
		level, err := appLog.ParseLevel(conf.LogLevel)
		if err != nil {
			appLog.Warn("ignoring log level", "log_level", conf.LogLevel, "error", err)
		}
		appLog.SetLevel(level)
	}

	clk, err := clock.NewSystem(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone, using local time", err, "timezone", conf.Timezone)
		clk = clock.System{Location: time.Local}
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", clk.Location.String(),
		"basic_auth", conf.BasicAuth != nil && conf.BasicAuth.Username != "",
		"milestones", len(conf.Milestones),
		"card_enabled", conf.Card.Enabled,
		"card_kind", conf.Card.Kind,
		"card_refresh", conf.Card.RefreshCron,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := web.NewServer(conf, clk)
	if err != nil {
		appLog.Error("failed to initialize web server", err)
		os.Exit(1)
	}

	if flags.once {
		if err := runOnce(ctx, srv, conf); err != nil {
			appLog.Error("card capture failed", err)
			os.Exit(1)
		}
		appLog.Info("medcalc exiting")
		return
	}

	var sched *schedule.Scheduler
	if conf.Card.Enabled {
		sched = schedule.New(clk.Location)
		job := func(ctx context.Context) error { return captureCard(ctx, conf) }
		if err := sched.Add("card", conf.Card.RefreshCron, job); err != nil {
			appLog.Error("failed to schedule card refresh", err)
			os.Exit(1)
		}
		sched.Start()
		for _, next := range sched.Next() {
			appLog.Info("next card refresh", "at", next.Format(time.RFC3339))
		}
	}

	if err := srv.Run(ctx, web.DefaultShutdownGrace); err != nil {
		appLog.Error("web server failed", err)
	}

	if sched != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := sched.Stop(stopCtx); err != nil {
			appLog.Warn("scheduler did not stop cleanly", "error", err)
		}
		cancel()
	}
	appLog.Info("medcalc exiting")
}

// runOnce serves the card page just long enough to capture it once.
func runOnce(ctx context.Context, srv *web.Server, conf *config.Config) error {
	if !conf.Card.Enabled {
		return errors.New("-once requires card.enabled in the config")
	}
	ln, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return err
	}
	serveCtx, cancel := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(serveCtx, ln, web.DefaultShutdownGrace) }()

	captureErr := captureCard(ctx, conf)
	cancel()
	return errors.Join(captureErr, <-served)
}

func captureCard(ctx context.Context, conf *config.Config) error {
	return capture.CaptureCardPNG(ctx, capture.Options{
		URL:        cardURL(conf),
		OutputPath: conf.Card.Output,
		Width:      conf.Card.Width,
		Height:     conf.Card.Height,
		Ink:        conf.Card.Ink,
	})
}

// cardURL returns the loopback URL of the /card page, carrying basic auth
// credentials when they are configured.
func cardURL(conf *config.Config) string {
	host, port, err := net.SplitHostPort(conf.Listen)
	if err != nil {
		host, port = "", conf.Listen
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: "/card"}
	if ba := conf.BasicAuth; ba != nil && ba.Username != "" && ba.Password != "" {
		u.User = url.UserPassword(ba.Username, ba.Password)
	}
	return u.String()
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/medcalc/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Capture the day-count card once and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
