package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"faceless/internal/config"
	"faceless/internal/daemon"
	"faceless/internal/ipc"
	"faceless/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d.Session(), ipc.ServerInfo{
		LockPath: d.LockPath(),
		DBPath:   cfg.DatabasePath(),
	}, cancel, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-ctx.Done()
	logger.Info("facelessd shutting down")
}
