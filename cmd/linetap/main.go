package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/linetap/linetap/internal/cliconfig"
	"github.com/linetap/linetap/pkg/log"
)

const helpDescription = `
Relay plain-text log lines over TCP and watch them live.

linetap listen binds a TCP port, batches incoming lines, and renders them
in an interactive viewer (or prints them with --plain). linetap ship reads
lines from stdin or follows a file and forwards them to a listener,
reconnecting forever while the receiver is away.
`

var exampleUsage = strings.TrimSpace(`
  linetap listen
  linetap listen --port 9090 --plain
  tail -f app.log | linetap ship --host logs.internal
  linetap ship --follow /var/log/app.log --source worker
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// loadConfig layers the config file (default $HOME/.linetap/config.toml)
// and LINETAP_* environment variables underneath explicitly set flags,
// then validates the result. It returns the config file path it used.
// flagKeys remaps a flag name to its settings key where the two differ
// (both subcommands expose --port, but they guard different fields).
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string, flagKeys map[string]string) (string, error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		name := f.Name
		if key, ok := flagKeys[name]; ok {
			name = key
		}
		changed[name] = true
	})

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return "", err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return "", err
	}

	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return cfgFile, nil
}

// watchConfigFile runs the config watcher until ctx is cancelled. A running
// process cannot re-apply its config, so onChange only notifies the operator.
func watchConfigFile(ctx context.Context, path string, logger log.Logger, onChange func()) {
	if path == "" || !cliconfig.FileExists(path) {
		return
	}
	if err := cliconfig.WatchConfig(ctx, path, logger, onChange); err != nil {
		logger.Warn("config watcher unavailable", log.String("path", path), log.Err(err))
	}
}

func main() {
	root := &cobra.Command{
		Use:     "linetap",
		Short:   "Relay plain-text log lines over TCP and watch them live",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
	}
	root.AddCommand(newListenCmd(), newShipCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
