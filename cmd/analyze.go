package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/pipeline"
)

// analysis is the quality report for one page image.
type analysis struct {
	Source     string                      `json:"source"`
	Features   model.ImagePropertyFeatures `json:"features"`
	Assessment *model.QualityAssessment    `json:"assessment"`
	Filter     model.FilterType            `json:"filter"`
	Parameters model.FilterParameters      `json:"parameters"`
}

func analyzeImage(ctx context.Context, c *pipeline.Components, source string, data []byte) (*analysis, error) {
	features, err := c.Features.ExtractBytes(data)
	if err != nil {
		return nil, err
	}
	assessment, err := c.Analyzer.Assess(ctx, features)
	if err != nil {
		return nil, err
	}
	params, err := c.Selector.Select(ctx, features)
	if err != nil {
		return nil, err
	}
	return &analysis{
		Source:     source,
		Features:   features,
		Assessment: assessment,
		Filter:     params.FilterType(),
		Parameters: params,
	}, nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>...",
	Short: "Measure page image quality and pick enhancement filters",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		comps, err := initComponents(ctx, cfg, "analyze")
		if err != nil {
			return err
		}

		results := make([]*analysis, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read %s", path)
			}
			a, err := analyzeImage(ctx, comps, path, data)
			if err != nil {
				return eris.Wrapf(err, "analyze %s", path)
			}
			results = append(results, a)
		}

		return writeJSON(cmd.OutOrStdout(), results)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
