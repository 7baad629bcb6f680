package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linetap/linetap/internal/cliconfig"
	"github.com/linetap/linetap/internal/server"
	"github.com/linetap/linetap/internal/tui"
	"github.com/linetap/linetap/pkg/log"
)

func newListenCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive log lines over TCP and view them live",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := loadConfig(cmd, &cfg, cfgPath, map[string]string{"port": "listen-port"})
			if err != nil {
				return err
			}
			if cfg.Plain {
				return runListenPlain(cfg, cfgFile)
			}
			return runListenViewer(cfg, cfgFile)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.linetap/config.toml)")
	cmd.Flags().IntVar(&cfg.ListenPort, "port", cfg.ListenPort, "TCP port to listen on")
	cmd.Flags().DurationVar(&cfg.FlushWindow, "flush-window", cfg.FlushWindow, "quiet window before a batch is delivered")
	cmd.Flags().BoolVar(&cfg.Plain, "plain", cfg.Plain, "print lines to stdout instead of the interactive viewer")
	cmd.Flags().DurationVar(&cfg.ShutdownGrace, "shutdown-grace", cfg.ShutdownGrace, "how long shutdown waits for in-flight work")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")
	return cmd
}

func runListenPlain(cfg cliconfig.Config, cfgFile string) error {
	logger := log.NewZerologAdapterWithLogger(cliconfig.Logger(cfg.Verbose))

	srv, err := server.New(server.Config{
		Port:          cfg.ListenPort,
		FlushWindow:   cfg.FlushWindow,
		ShutdownGrace: cfg.ShutdownGrace,
		Logger:        logger,
		Sink: func(records []string) {
			for _, r := range records {
				fmt.Println(r)
			}
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchConfigFile(ctx, cfgFile, logger, func() {
		logger.Warn("config file changed, restart to apply", log.String("path", cfgFile))
	})

	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("listening", log.String("addr", srv.Addr().String()))

	<-ctx.Done()
	logger.Info("received signal, stopping")
	return srv.Stop()
}

func runListenViewer(cfg cliconfig.Config, cfgFile string) error {
	// The terminal belongs to the viewer, so server diagnostics are muted.
	logger := log.NewNoopLogger()
	viewer := tui.NewViewer(fmt.Sprintf("linetap :%d", cfg.ListenPort))

	srv, err := server.New(server.Config{
		Port:          cfg.ListenPort,
		FlushWindow:   cfg.FlushWindow,
		ShutdownGrace: cfg.ShutdownGrace,
		Logger:        logger,
		Sink:          viewer.Sink,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchConfigFile(ctx, cfgFile, logger, func() {
		_ = srv.Inject(fmt.Sprintf("-- config file %s changed, restart to apply --", cfgFile))
	})

	if err := srv.Start(ctx); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				viewer.Quit()
				return
			case <-ticker.C:
				viewer.SetConnections(srv.Connections())
			}
		}
	}()

	runErr := viewer.Run()
	stopErr := srv.Stop()
	if runErr != nil {
		return runErr
	}
	return stopErr
}
