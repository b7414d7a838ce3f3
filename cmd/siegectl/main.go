package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/app"
	"github.com/atayl16/siege-clan-tracker/pkg/config"
	"github.com/atayl16/siege-clan-tracker/pkg/logger"
)

const programName = "siegectl"

var globalFlags = struct {
	debug bool
}{}

type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globalFlags.debug {
		cfg.Log.Level = "debug"
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &runtime{cfg: cfg, logger: logr.Named(programName)}, nil
}

// withContainer builds the application graph for the duration of fn.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	container, err := app.Build(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(ctx, container)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Administrative tasks for the Siege clan tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(
		issueCodeCommand(),
		syncGoalsCommand(),
		refreshRosterCommand(),
		rankAuditCommand(),
		tokenCommand(),
		lookupCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
