package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"faceless/internal/daemon"
	"faceless/internal/ipc"
	"faceless/internal/logging"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:          "run",
		Short:        "Run the faceless daemon in the foreground",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(signalCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(); err != nil {
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), d.Session(), ipc.ServerInfo{
		LockPath: d.LockPath(),
		DBPath:   cfg.DatabasePath(),
	}, cancel, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("faceless daemon shutting down")
	return nil
}
