package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/suboverlay/internal/subtitle"
)

var exportCmd = &cobra.Command{
	Use:   "export [output_file]",
	Short: "Write the loaded timeline as SRT or VTT",
	Long: `Write the stored timeline to a subtitle file. The format follows the
file extension (.srt or .vtt). Without a file, SRT is written to stdout.

Examples:
  suboverlay export
  suboverlay export translated.vtt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	entries, err := store.LoadAll()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no subtitles loaded")
	}

	if len(args) == 0 {
		return (&subtitle.SRTWriter{}).WriteTo(cmd.OutOrStdout(), entries)
	}

	outputPath := args[0]
	format := subtitle.GetFormatFromExtension(outputPath)
	if err := subtitle.WriteFile(outputPath, format, entries); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	logger.Infow("Exported subtitles", "output", absOutput, "format", string(format))
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles exported: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", len(entries))
	return nil
}
