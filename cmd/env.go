package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/config"
	"github.com/sells-group/regdoc-cli/internal/pipeline"
	"github.com/sells-group/regdoc-cli/internal/quality"
	"github.com/sells-group/regdoc-cli/internal/store"
)

// openStore opens and migrates the configured model store. Callers should
// defer Close.
func openStore(ctx context.Context, sc config.StoreConfig) (store.ModelStore, error) {
	st, err := store.Open(ctx, sc)
	if err != nil {
		return nil, eris.Wrap(err, "open model store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate model store")
	}
	return st, nil
}

// loadModelSet returns the active model set, or the placeholder set when the
// store holds none.
func loadModelSet(ctx context.Context, c *config.Config) (*quality.ModelSet, error) {
	st, err := openStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	set, err := store.LoadOrDefault(ctx, st)
	if err != nil {
		return nil, eris.Wrap(err, "load model set")
	}
	zap.L().Debug("model set loaded",
		zap.String("version", set.Version),
		zap.String("driver", c.Store.Driver),
	)
	return set, nil
}

// initComponents validates cfg for mode and builds the quality and
// extraction components from the stored model set.
func initComponents(ctx context.Context, c *config.Config, mode string) (*pipeline.Components, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}
	set, err := loadModelSet(ctx, c)
	if err != nil {
		return nil, err
	}
	return pipeline.NewComponents(c, set)
}
