package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/report"
)

var (
	compareAuthoritative string
	compareExtracted     string
	compareOCRConfidence float64
	compareXLSX          string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Reconcile extracted fields against an authoritative record",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("compare"); err != nil {
			return err
		}

		authoritative, err := readFields(compareAuthoritative)
		if err != nil {
			return err
		}
		extracted, err := readFields(compareExtracted)
		if err != nil {
			return err
		}

		if compareOCRConfidence > 1 {
			return eris.New("--ocr-confidence must be at most 1")
		}
		var conf *float32
		if compareOCRConfidence >= 0 {
			c := float32(compareOCRConfidence)
			conf = &c
		}

		res, err := compare.NewComparer(cfg.Extraction.PartialThreshold).Reconcile(cmd.Context(), authoritative, extracted, conf)
		if err != nil {
			return err
		}

		if compareXLSX != "" {
			entry := report.Entry{DocumentID: compareExtracted, Source: compareExtracted, Result: res}
			if err := report.WriteComparisons(compareXLSX, []report.Entry{entry}); err != nil {
				return err
			}
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareAuthoritative, "authoritative", "", "JSON file with the authoritative fields")
	compareCmd.Flags().StringVar(&compareExtracted, "extracted", "", "JSON file with the extracted fields")
	compareCmd.Flags().Float64Var(&compareOCRConfidence, "ocr-confidence", -1, "OCR confidence attached to each comparison (negative to omit)")
	compareCmd.Flags().StringVar(&compareXLSX, "xlsx", "", "also write the comparison to this XLSX file")
	_ = compareCmd.MarkFlagRequired("authoritative")
	_ = compareCmd.MarkFlagRequired("extracted")
	rootCmd.AddCommand(compareCmd)
}
