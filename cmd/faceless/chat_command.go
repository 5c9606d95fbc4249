package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"faceless/internal/ipc"
)

func newChatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message and wait for the reply and scene image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("message is empty")
			}

			stdout := cmd.OutOrStdout()
			var resp *ipc.ChatResponse
			err := ctx.withClient(func(client *ipc.Client) error {
				stop := startSpinner("Generating scene")
				defer stop()
				var chatErr error
				resp, chatErr = client.Chat(message)
				return chatErr
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout, resp.Reply)
			fmt.Fprintln(stdout)

			colorize := shouldColorize(stdout)
			fmt.Fprintln(stdout, renderStatusLine("Mood", statusInfo, resp.Mood, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Location", statusInfo, resp.Location, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Scene change", statusInfo, yesNo(resp.ChangeScene), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Provider", statusInfo, resp.Provider, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Seed", statusInfo, fmt.Sprintf("%d", resp.Seed), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Elapsed", statusInfo, (time.Duration(resp.ElapsedMillis)*time.Millisecond).String(), colorize))
			if resp.ArtifactPath != "" {
				fmt.Fprintln(stdout, renderStatusLine("Image", statusOK, resp.ArtifactPath, colorize))
			}
			return nil
		},
	}
}

// startSpinner animates on stderr while a turn is in flight. The returned
// stop function clears the spinner line; a no-op when stderr is not a TTY.
func startSpinner(description string) func() {
	if !isTerminal(os.Stderr) {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	return shouldColorize(file)
}
