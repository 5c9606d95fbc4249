package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"faceless/internal/ipc"
)

const (
	startPollInterval = 250 * time.Millisecond
	startWaitTimeout  = 10 * time.Second
	stopWaitTimeout   = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the faceless daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if client, err := ipc.Dial(ctx.socketPath()); err == nil {
				_ = client.Close()
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if err := launchDaemon(ctx); err != nil {
				return err
			}
			if err := waitForSocket(ctx.socketPath(), startWaitTimeout); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the faceless daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ipc.Dial(ctx.socketPath())
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			defer client.Close()

			resp, err := client.Stop()
			if err != nil {
				return fmt.Errorf("stop daemon: %w", err)
			}
			if !resp.Stopped {
				fmt.Fprintln(stdout, "Stop request sent")
				return nil
			}
			waitForShutdown(ctx.socketPath(), stopWaitTimeout)
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the faceless daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if client, err := ipc.Dial(ctx.socketPath()); err == nil {
				if _, stopErr := client.Stop(); stopErr != nil {
					_ = client.Close()
					return fmt.Errorf("stop daemon: %w", stopErr)
				}
				_ = client.Close()
				waitForShutdown(ctx.socketPath(), stopWaitTimeout)
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			if err := launchDaemon(ctx); err != nil {
				return err
			}
			if err := waitForSocket(ctx.socketPath(), startWaitTimeout); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and scene status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				renderStatus(cmd, status)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd, newDaemonRunCommand(ctx)}
}

func renderStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	runningKind := statusOK
	if !status.Running {
		runningKind = statusError
	}
	fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, fmt.Sprintf("pid %d", status.PID), colorize))
	busyKind := statusOK
	busyDetail := "idle"
	if status.Busy {
		busyKind = statusWarn
		busyDetail = "generating"
	}
	fmt.Fprintln(stdout, renderStatusLine("Pipeline", busyKind, busyDetail, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Provider", statusInfo, status.Provider, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DBPath, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Scene", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := [][]string{
		{"Identity", status.IdentityProfile},
		{"Location", status.Location},
		{"Mood", status.Mood},
		{"Visual anchor", status.VisualAnchor},
		{"Turn counter", fmt.Sprintf("%d", status.TurnID)},
		{"History length", fmt.Sprintf("%d", status.HistoryLen)},
	}
	fmt.Fprintln(stdout, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
}

func launchDaemon(ctx *commandContext) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := []string{"run"}
	if ctx.configFlag != nil {
		if path := strings.TrimSpace(*ctx.configFlag); path != "" {
			args = append(args, "--config", path)
		}
	}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			args = append(args, "--socket", socket)
		}
	}

	proc := exec.Command(exe, args...)
	proc.Stdout = nil
	proc.Stderr = nil
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

func waitForSocket(socket string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if client, err := ipc.Dial(socket); err == nil {
			_ = client.Close()
			return nil
		}
		time.Sleep(startPollInterval)
	}
	return fmt.Errorf("daemon did not come up within %s; check the logs", timeout)
}

func waitForShutdown(socket string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socket)
		if err != nil {
			return
		}
		_ = client.Close()
		time.Sleep(startPollInterval)
	}
}
