package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/suboverlay/internal/kv"
	"github.com/mgpai22/suboverlay/internal/overlay"
	"github.com/mgpai22/suboverlay/internal/timeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Drive a renderer over stdin/stdout",
	Long: `Read one JSON message per line from stdin and write one JSON directive
per line to stdout. Messages carry an action (load, play, pause, seeking,
clear, info); directives tell the renderer to draw a subtitle, clear it,
show an info line or report an error.

Example message:
  {"action":"play","info":{"width":640,"height":340}}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("memory", false, "Keep state in memory instead of the state file")
}

func runServe(cmd *cobra.Command, args []string) error {
	memory, _ := cmd.Flags().GetBool("memory")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store *timeline.Store
		err   error
	)
	if memory {
		store = timeline.NewStore(kv.NewMemoryStore())
	} else {
		store, err = openStore()
		if err != nil {
			return err
		}
	}

	out := overlay.NewJSONLineWriter(cmd.OutOrStdout())
	engine := newEngine(store, out)
	defer engine.Close()

	logger.Infow("Serving", "memory", memory, "store", cfg.StorePath)

	err = overlay.Serve(ctx, engine, cmd.InOrStdin(), out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
