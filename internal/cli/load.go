package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/mgpai22/suboverlay/internal/overlay"
	"github.com/mgpai22/suboverlay/internal/subtitle"
)

var loadCmd = &cobra.Command{
	Use:   "load [subtitle_file]",
	Short: "Load an SRT transcript as the current timeline",
	Long: `Parse an SRT transcript and store it as the current timeline,
replacing whatever was loaded before and resetting the playback position.

Examples:
  suboverlay load movie.srt
  suboverlay load --clipboard --name "episode 3"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().Bool("clipboard", false, "Read the transcript from the clipboard")
	loadCmd.Flags().String("name", "", "Display name for the transcript (defaults to the file name)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	fromClipboard, _ := cmd.Flags().GetBool("clipboard")
	name, _ := cmd.Flags().GetString("name")

	if fromClipboard == (len(args) == 1) {
		return fmt.Errorf("give either a subtitle file or --clipboard")
	}

	lines, source, err := readTranscript(args, fromClipboard)
	if err != nil {
		return err
	}
	if name == "" {
		name = source
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	engine := newEngine(store, newTerminalRenderer(cmd.OutOrStdout()))
	defer engine.Close()

	msg := overlay.Message{Action: overlay.ActionLoad, Lines: lines, Filename: name}
	if err := engine.Handle(context.Background(), msg); err != nil {
		return err
	}

	entries, err := store.LoadAll()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded '%s': %d captions, runtime %s\n",
		name, len(entries), overlay.FormatClock(subtitle.Runtime(entries).Milliseconds()))
	return nil
}

func readTranscript(args []string, fromClipboard bool) ([]string, string, error) {
	if fromClipboard {
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		lines, err := subtitle.ReadLines(strings.NewReader(text))
		return lines, "clipboard", err
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("subtitle file not found: %s", path)
		}
		return nil, "", fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer f.Close()

	lines, err := subtitle.ReadLines(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return lines, filepath.Base(path), nil
}
