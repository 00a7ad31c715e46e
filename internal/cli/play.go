package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/suboverlay/internal/overlay"
	"github.com/mgpai22/suboverlay/internal/playback"
	"github.com/mgpai22/suboverlay/internal/video"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the loaded timeline in the foreground",
	Long: `Start or resume playback of the loaded timeline, printing each caption
as it becomes due. Ctrl+C pauses and keeps the position for the next run.

The caption anchor is computed from the video size, which is probed with
ffprobe when --video is given.

Examples:
  suboverlay play
  suboverlay play --video movie.mp4
  suboverlay play --width 1280 --height 720`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().String("video", "", "Video file to read the overlay size from")
	playCmd.Flags().Int("width", 0, "Overlay width in pixels")
	playCmd.Flags().Int("height", 0, "Overlay height in pixels")
}

func runPlay(cmd *cobra.Command, args []string) error {
	videoPath, _ := cmd.Flags().GetString("video")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dims, err := overlayDimensions(ctx, videoPath, width, height)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	engine := newEngine(store, newTerminalRenderer(cmd.OutOrStdout()))
	defer engine.Close()

	msg := overlay.Message{
		Action: overlay.ActionPlay,
		Info:   &overlay.VideoInfo{Width: dims.Width, Height: dims.Height},
	}
	if err := engine.Handle(ctx, msg); err != nil {
		return err
	}

	clock := engine.Clock()
	select {
	case <-clock.Done():
	case <-ctx.Done():
		clock.Pause()
	}

	switch clock.State() {
	case playback.Stopped:
		fmt.Fprintln(cmd.OutOrStdout(), "Playback finished")
		// the next play starts from the beginning
		return clock.Stop()
	default:
		cursor, _, err := store.Cursor()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Paused at %s\n", overlay.FormatClock(cursor.ElapsedMs))
	}
	return nil
}

// overlay size from flags, then the probed video, then the config
func overlayDimensions(ctx context.Context, videoPath string, width, height int) (playback.Dimensions, error) {
	if width > 0 && height > 0 {
		return playback.Dimensions{Width: width, Height: height}, nil
	}

	if videoPath != "" {
		probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		info, err := video.NewProber().GetInfo(probeCtx, videoPath)
		if err != nil {
			return playback.Dimensions{}, fmt.Errorf("failed to probe video: %w", err)
		}
		logger.Infow("Probed video",
			"path", videoPath,
			"width", info.Width,
			"height", info.Height,
			"duration", info.Duration.String(),
		)
		return playback.Dimensions{Width: info.Width, Height: info.Height}, nil
	}

	return playback.Dimensions{Width: cfg.Video.Width, Height: cfg.Video.Height}, nil
}
