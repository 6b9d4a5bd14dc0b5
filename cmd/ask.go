package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/farego/farego/internal/app"
	"github.com/farego/farego/internal/config"
	"github.com/farego/farego/internal/log"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question from the terminal",
	Long: `Ask a single question without starting the HTTP server.

The full pipeline runs once: the corpus is indexed, the agent answers
with tool access, and the exchange is persisted to chat history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Quiet text logging for terminal use.
	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	question := strings.Join(args, " ")

	reply, err := a.Service.Handle(ctx, uuid.New(), question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(reply.Response)
	if reply.PersistWarning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", reply.PersistWarning)
	}

	return nil
}
