package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/regdoc-cli/internal/extraction"
)

var (
	extractMode        string
	extractStrategies  []string
	extractConfidences bool
	extractExisting    string
)

var extractCmd = &cobra.Command{
	Use:   "extract [text-file]",
	Short: "Extract case fields from recognized text",
	Long:  "Extracts case fields from a text file, or from stdin when no file is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if extractMode != "" {
			cfg.Extraction.Mode = extractMode
		}
		if len(extractStrategies) > 0 {
			cfg.Extraction.Strategies = extractStrategies
		}

		comps, err := initComponents(ctx, cfg, "extract")
		if err != nil {
			return err
		}

		var text []byte
		if len(args) == 1 {
			text, err = os.ReadFile(args[0])
		} else {
			text, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return eris.Wrap(err, "read text")
		}

		if extractConfidences {
			confs, err := comps.Orchestrator.GetStrategyConfidences(ctx, string(text))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), confs)
		}

		existing, err := readFields(extractExisting)
		if err != nil {
			return err
		}
		if existing != nil && comps.Mode != extraction.ModeComplement {
			return eris.New("--existing is only used in complement mode")
		}

		outcome, err := comps.Orchestrator.RunDetailed(ctx, string(text), comps.Mode, existing)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), outcome)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractMode, "mode", "", "orchestration mode: best_strategy, merge_all or complement (default from config)")
	extractCmd.Flags().StringSliceVar(&extractStrategies, "strategies", nil, "strategies to run (default from config)")
	extractCmd.Flags().BoolVar(&extractConfidences, "confidences", false, "print per-strategy confidences instead of fields")
	extractCmd.Flags().StringVar(&extractExisting, "existing", "", "JSON file with previously known fields (complement mode)")
	rootCmd.AddCommand(extractCmd)
}
