package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/suboverlay/internal/subtitle"
	"github.com/mgpai22/suboverlay/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the loaded timeline using AI",
	Long: `Translate the captions of the loaded timeline into another language.
Timing and numbering are kept; the translated timeline replaces the loaded
one unless --output is given, in which case it is written to that file.

The --overlay flag creates bilingual captions with the translated text
first, followed by the original text on the next line.

Examples:
  suboverlay translate --target-language japanese
  suboverlay translate -t es --overlay
  suboverlay translate -t german --provider anthropic -o movie.de.srt`,
	Args: cobra.NoArgs,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		StringP("language", "l", "", "Language of the loaded captions (optional)")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual captions)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic); defaults to config")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers (defaults to config)")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of captions per API request (defaults to config)")
	translateCmd.Flags().
		StringP("output", "o", "", "Write the translation to this file instead of replacing the timeline")

	_ = translateCmd.MarkFlagRequired("target-language")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	modelOverride, _ := cmd.Flags().GetBool("model-override")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	outputPath, _ := cmd.Flags().GetString("output")

	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" && strings.EqualFold(strings.TrimSpace(inputLang), targetLang) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	if providerStr == "" {
		providerStr = cfg.Translate.Provider
	}
	provider := translate.Provider(strings.ToLower(providerStr))
	if model == "" {
		model = cfg.Translate.Model
	}
	if !cmd.Flags().Changed("concurrency") {
		concurrency = cfg.Translate.Concurrency
	}
	if !cmd.Flags().Changed("batch-size") {
		batchSize = cfg.Translate.BatchSize
	}

	if apiKey == "" {
		apiKey = os.Getenv(provider.APIKeyEnv())
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			provider.APIKeyEnv(),
		)
	}

	if model != "" && !modelOverride {
		if err := validateModel(provider, model); err != nil {
			return err
		}
	}

	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

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
	name, err := store.Filename()
	if err != nil {
		return err
	}

	logger.Infow("Starting subtitle translation",
		"source", name,
		"entries", len(entries),
		"provider", string(provider),
		"target_language", targetLang,
		"input_language", inputLang,
		"overlay", overlay,
		"model", model,
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	translated, err := translate.Entries(ctx, translator, entries, concurrency, overlay)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	logger.Infow("Translation complete", "entries", len(translated))

	if outputPath != "" {
		if err := subtitle.WriteFile(outputPath, subtitle.GetFormatFromExtension(outputPath), translated); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		absOutput, _ := filepath.Abs(outputPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Subtitles translated successfully: %s\n", absOutput)
	} else {
		newName := translatedName(name, targetLang, overlay)
		if err := store.Replace(translated, newName); err != nil {
			return fmt.Errorf("failed to store translation: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Subtitles translated successfully: %s\n", newName)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", len(translated))
	fmt.Fprintf(cmd.OutOrStdout(), "  Target language: %s\n", targetLang)
	if overlay {
		fmt.Fprintf(cmd.OutOrStdout(), "  Mode: bilingual overlay\n")
	}
	return nil
}

// movie.srt -> movie.ja.srt, or movie.ja.overlay.srt
func translatedName(name, targetLang string, overlay bool) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if overlay {
		return fmt.Sprintf("%s.%s.overlay%s", base, targetLang, ext)
	}
	return fmt.Sprintf("%s.%s%s", base, targetLang, ext)
}
