package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linetap/linetap/internal/client"
	"github.com/linetap/linetap/internal/cliconfig"
	"github.com/linetap/linetap/internal/tailsrc"
	"github.com/linetap/linetap/pkg/log"
)

func newShipCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Forward log lines from stdin or a followed file to a listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := loadConfig(cmd, &cfg, cfgPath, nil)
			if err != nil {
				return err
			}
			return runShip(cfg, cfgFile)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.linetap/config.toml)")
	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "receiver host")
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "receiver TCP port")
	cmd.Flags().DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "fixed wait between failed connect attempts")
	cmd.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "timeout for a single connect attempt")
	cmd.Flags().StringVar(&cfg.Source, "source", cfg.Source, "tag lines with this source name")
	cmd.Flags().StringVar(&cfg.Follow, "follow", cfg.Follow, "follow this file instead of reading stdin")
	cmd.Flags().DurationVar(&cfg.ShutdownGrace, "shutdown-grace", cfg.ShutdownGrace, "how long shutdown waits for the queue to drain")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")
	return cmd
}

func runShip(cfg cliconfig.Config, cfgFile string) error {
	logger := log.NewZerologAdapterWithLogger(cliconfig.Logger(cfg.Verbose))

	sh, err := client.New(client.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		RetryDelay:    cfg.RetryDelay,
		DialTimeout:   cfg.DialTimeout,
		ShutdownGrace: cfg.ShutdownGrace,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchConfigFile(ctx, cfgFile, logger, func() {
		logger.Warn("config file changed, restart to apply", log.String("path", cfgFile))
	})

	if err := sh.Start(ctx); err != nil {
		return err
	}

	enqueue := func(line string) {
		if cfg.Source != "" {
			sh.EnqueueEntry(client.Entry{Source: cfg.Source, Message: line})
			return
		}
		sh.Enqueue(line)
	}

	if cfg.Follow != "" {
		if err := tailsrc.Follow(ctx, cfg.Follow, false, logger, enqueue); err != nil {
			_ = sh.Close()
			return err
		}
		logger.Info("stopping")
		return sh.Close()
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			lines <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			logger.Warn("stdin read error", log.Err(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("received signal, stopping")
			return sh.Close()
		case line, ok := <-lines:
			if !ok {
				// stdin is exhausted; Close drains what is still queued.
				return sh.Close()
			}
			enqueue(line)
		}
	}
}
