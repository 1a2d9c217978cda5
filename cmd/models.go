package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/store"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage trained quality model sets",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return cfg.Validate("models")
	},
}

var modelsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML model set and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}
		set, err := store.DecodeYAML(data)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.SaveModelSet(ctx, set); err != nil {
			return err
		}
		zap.L().Info("model set imported",
			zap.String("version", set.Version),
			zap.String("driver", cfg.Store.Driver),
		)
		return nil
	},
}

var modelsExportOut string

var modelsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the active model set as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadModelSet(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		data, err := store.EncodeYAML(set)
		if err != nil {
			return err
		}
		if modelsExportOut == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return eris.Wrap(err, "write model set")
		}
		return eris.Wrapf(os.WriteFile(modelsExportOut, data, 0o644), "write %s", modelsExportOut)
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored model set versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		infos, err := st.ListModelSets(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), infos)
	},
}

var modelsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the model store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		zap.L().Info("model store migrated", zap.String("driver", cfg.Store.Driver))
		return st.Close()
	},
}

func init() {
	modelsExportCmd.Flags().StringVarP(&modelsExportOut, "out", "o", "", "output file (default stdout)")
	modelsCmd.AddCommand(modelsImportCmd, modelsExportCmd, modelsListCmd, modelsMigrateCmd)
	rootCmd.AddCommand(modelsCmd)
}
