package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mgpai22/suboverlay/internal/config"
	"github.com/mgpai22/suboverlay/internal/kv"
	"github.com/mgpai22/suboverlay/internal/logging"
	"github.com/mgpai22/suboverlay/internal/timeline"
)

var (
	verbose    bool
	configPath string
	storePath  string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "suboverlay",
	Short: "Overlay timed subtitles on a playing video",
	Long: `Suboverlay loads an SRT transcript, persists it, and drives caption
display in step with playback. Playback can be paused, resumed and
seeked; the position survives between runs.

A renderer can drive it over stdin/stdout with the serve command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		// API keys may live in a local .env
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warnw("Failed to load .env", "error", err)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if storePath != "" {
			cfg.StorePath = storePath
		}

		logger.Debugw("Configuration loaded",
			"config", cfg.Path(),
			"store", cfg.StorePath,
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultFile, "Config file path")
	rootCmd.PersistentFlags().
		StringVar(&storePath, "store", "", "State file holding the loaded timeline (overrides config)")
}

// opens the persisted timeline named by the config
func openStore() (*timeline.Store, error) {
	fileStore, err := kv.OpenFileStore(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	return timeline.NewStore(fileStore), nil
}
