package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mgpai22/suboverlay/internal/overlay"
	"github.com/mgpai22/suboverlay/internal/subtitle"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Show where playback will resume",
	Long: `Playback only runs in the foreground of the play command, where Ctrl+C
pauses it. This command reports the stored resume position.`,
	Args: cobra.NoArgs,
	RunE: runPause,
}

var seekCmd = &cobra.Command{
	Use:   "seek <seconds>",
	Short: "Move the playback position",
	Long: `Move the resume position to the given time. The next play continues
with the first caption starting at or after it.

Examples:
  suboverlay seek 90
  suboverlay seek 12.5`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset the playback position to the beginning",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Describe the loaded timeline and playback position",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(statusCmd)
}

func runPause(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	cursor, ok, err := store.Cursor()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing is playing; play starts from the beginning")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Paused at %s\n", overlay.FormatClock(cursor.ElapsedMs))
	return nil
}

func runSeek(cmd *cobra.Command, args []string) error {
	seconds, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", args[0], err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	engine := newEngine(store, newTerminalRenderer(cmd.ErrOrStderr()))
	defer engine.Close()

	msg := overlay.Message{Action: overlay.ActionSeeking, Time: seconds}
	if err := engine.Handle(context.Background(), msg); err != nil {
		return err
	}

	cursor, _, err := store.Cursor()
	if err != nil {
		return err
	}
	entries, err := store.LoadAll()
	if err != nil {
		return err
	}
	next := entries[cursor.Index]
	fmt.Fprintf(cmd.OutOrStdout(), "Seeked to %s; next caption #%d at %s\n",
		overlay.FormatClock(cursor.ElapsedMs), next.Sequence, overlay.FormatClock(next.StartMs))
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	engine := newEngine(store, newTerminalRenderer(cmd.ErrOrStderr()))
	defer engine.Close()

	if err := engine.Handle(context.Background(), overlay.Message{Action: overlay.ActionClear}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Playback position cleared")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	entries, err := store.LoadAll()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No subtitles loaded")
		return nil
	}

	name, err := store.Filename()
	if err != nil {
		return err
	}
	runtime := subtitle.Runtime(entries)
	fmt.Fprintf(out, "Subtitles: %s\n", name)
	fmt.Fprintf(out, "  Captions: %d\n", len(entries))
	fmt.Fprintf(out, "  Runtime: %s [%dms]\n", overlay.FormatClock(runtime.Milliseconds()), runtime.Milliseconds())

	cursor, ok, err := store.Cursor()
	if err != nil {
		return err
	}
	switch {
	case !ok:
		fmt.Fprintln(out, "  Position: start")
	case cursor.Index >= len(entries):
		fmt.Fprintf(out, "  Position: %s (finished)\n", overlay.FormatClock(cursor.ElapsedMs))
	default:
		fmt.Fprintf(out, "  Position: %s (caption %d of %d)\n",
			overlay.FormatClock(cursor.ElapsedMs), cursor.Index+1, len(entries))
	}
	return nil
}
