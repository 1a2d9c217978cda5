package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/monitoring"
	"github.com/sells-group/regdoc-cli/internal/pipeline"
	"github.com/sells-group/regdoc-cli/internal/report"
)

var (
	processPages         bool
	processManifest      string
	processAuthoritative string
	processExisting      string
	processOutput        string
	processXLSX          string
)

var processCmd = &cobra.Command{
	Use:   "process [file]...",
	Short: "Run page images or PDFs through the full pipeline",
	Long: `Runs each file as a separate document through quality assessment, enhancement,
OCR, field extraction and, when an authoritative record is given, reconciliation.
With --pages all files are pages of a single document. With --manifest the
documents and their authoritative records are read from an XLSX sheet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		docs, err := buildDocuments(args, processPages, processManifest)
		if err != nil {
			return err
		}
		if err := applyRecords(docs, processAuthoritative, processExisting); err != nil {
			return err
		}

		comps, err := initComponents(ctx, cfg, "process")
		if err != nil {
			return err
		}
		p, err := comps.NewPipeline(cfg, nil)
		if err != nil {
			return err
		}

		batch, err := p.ProcessBatch(ctx, docs)
		if err != nil {
			return err
		}

		reportHealth(ctx, batch)

		if processXLSX != "" {
			if err := report.WriteComparisons(processXLSX, reportEntries(batch)); err != nil {
				return err
			}
			zap.L().Info("reconciliation report written", zap.String("path", processXLSX))
		}
		if err := writeJSONFile(cmd.OutOrStdout(), processOutput, batch); err != nil {
			return err
		}

		if batch.Succeeded() == 0 {
			return eris.Errorf("all %d documents failed", len(docs))
		}
		return nil
	},
}

// buildDocuments reads the input files into documents.
func buildDocuments(args []string, pages bool, manifest string) ([]pipeline.Document, error) {
	if manifest != "" {
		if len(args) > 0 || pages {
			return nil, eris.New("--manifest cannot be combined with file arguments or --pages")
		}
		return manifestDocuments(manifest)
	}
	if len(args) == 0 {
		return nil, eris.New("no input files")
	}

	if pages {
		doc := pipeline.Document{Source: args[0]}
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, eris.Wrapf(err, "read %s", path)
			}
			doc.Pages = append(doc.Pages, data)
		}
		return []pipeline.Document{doc}, nil
	}

	docs := make([]pipeline.Document, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		docs = append(docs, pipeline.Document{Source: path, Pages: [][]byte{data}})
	}
	return docs, nil
}

// manifestDocuments loads every manifest row. Relative sources resolve
// against the manifest's directory.
func manifestDocuments(path string) ([]pipeline.Document, error) {
	rows, err := report.ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("manifest %s lists no documents", path)
	}
	dir := filepath.Dir(path)
	docs := make([]pipeline.Document, 0, len(rows))
	for _, row := range rows {
		src := row.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(dir, src)
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", src)
		}
		docs = append(docs, pipeline.Document{
			Source:        row.Source,
			Pages:         [][]byte{data},
			Authoritative: row.Authoritative,
		})
	}
	return docs, nil
}

// applyRecords attaches authoritative and existing field records from JSON
// files. Both require a single document.
func applyRecords(docs []pipeline.Document, authoritative, existing string) error {
	if authoritative == "" && existing == "" {
		return nil
	}
	if len(docs) != 1 {
		return eris.New("--authoritative and --existing need exactly one document")
	}
	auth, err := readFields(authoritative)
	if err != nil {
		return err
	}
	known, err := readFields(existing)
	if err != nil {
		return err
	}
	if auth != nil {
		docs[0].Authoritative = auth
	}
	docs[0].Existing = known
	return nil
}

// reportHealth logs the batch snapshot and raises configured alerts.
func reportHealth(ctx context.Context, batch *pipeline.BatchResult) {
	snap := monitoring.Summarize(batch)
	zap.L().Info("batch summary",
		zap.Int("documents", snap.Documents),
		zap.Int("failed", snap.Failed),
		zap.Int("low_text_quality", snap.LowTextQuality),
		zap.Float64("avg_ocr_confidence", snap.AvgOCRConfidence),
		zap.Float64("avg_similarity", snap.AvgSimilarity),
	)

	alerter := monitoring.NewAlerter(cfg.Monitoring)
	alerts := alerter.Evaluate(snap)
	for _, a := range alerts {
		zap.L().Warn("batch alert", zap.String("type", string(a.Type)), zap.String("message", a.Message))
	}
	alerter.SendAlerts(ctx, alerts)
}

func reportEntries(batch *pipeline.BatchResult) []report.Entry {
	var entries []report.Entry
	for _, d := range batch.Documents {
		if d == nil || d.Comparison == nil {
			continue
		}
		entries = append(entries, report.Entry{DocumentID: d.ID, Source: d.Source, Result: d.Comparison})
	}
	return entries
}

func init() {
	processCmd.Flags().BoolVar(&processPages, "pages", false, "treat all files as pages of one document")
	processCmd.Flags().StringVar(&processManifest, "manifest", "", "XLSX manifest listing documents and authoritative fields")
	processCmd.Flags().StringVar(&processAuthoritative, "authoritative", "", "JSON file with authoritative fields to reconcile against")
	processCmd.Flags().StringVar(&processExisting, "existing", "", "JSON file with previously known fields (complement mode)")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "write JSON results to this file instead of stdout")
	processCmd.Flags().StringVar(&processXLSX, "xlsx", "", "write a reconciliation report to this XLSX file")
	rootCmd.AddCommand(processCmd)
}
