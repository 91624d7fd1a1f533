package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Makepad-fr/retos/internal/api"
	"github.com/Makepad-fr/retos/internal/cli"
	"github.com/Makepad-fr/retos/internal/config"
	"github.com/Makepad-fr/retos/internal/gateway"
	"github.com/Makepad-fr/retos/internal/listsync"
	"github.com/Makepad-fr/retos/internal/logger"
	"github.com/Makepad-fr/retos/internal/tui"
	"github.com/Makepad-fr/retos/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	fs := pflag.NewFlagSet("retos", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Usage = cli.PrintHelp
	configPath := fs.String("config", "", "config file (.yaml, .json or .jsonc); defaults to $"+config.EnvConfig)
	baseURL := fs.String("base-url", "", "API origin, overrides the config file")
	theme := fs.String("theme", "", "classic, neon or mono")
	forceColor := fs.Bool("color", false, "force colored output")
	noColor := fs.Bool("no-color", false, "disable colored output")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	logOutput := fs.String("log-output", "", "log file path, stderr, or empty to discard")
	group := fs.Bool("group", false, "group list output by status")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		ui.Fail(err.Error())
		os.Exit(2)
	}

	args := fs.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		ui.Fail("config: " + err.Error())
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
		if err := cfg.Validate(); err != nil {
			ui.Fail("config: " + err.Error())
			os.Exit(2)
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if fs.Changed("log-output") {
		cfg.Log.Output = *logOutput
	}
	if *theme != "" {
		cfg.Theme = *theme
	}

	ui.SetColorForcing(*forceColor, *noColor || os.Getenv("NO_COLOR") != "")
	ui.SetTheme(cfg.Theme)

	log, err := logger.New(cfg.Log)
	if err != nil {
		ui.Fail("logger: " + err.Error())
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Debug("starting", zap.String("base_url", cfg.BaseURL), zap.String("command", args[0]))

	remote := api.New(gateway.New(cfg.Timeout.Std(), log), api.Endpoints{
		BaseURL:      cfg.BaseURL,
		ListPath:     cfg.ListPath,
		FilterPath:   cfg.FilterPath,
		UpdateMethod: cfg.UpdateMethod,
		Labels:       cfg.WireLabels(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, args, cli.Options{
		Group:       *group,
		Sync:        listsync.New(remote, log),
		Interactive: tui.Run,
	})
	stop()
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	_ = log.Sync()
	os.Exit(code)
}
