// Package store loads and saves the quality model set that drives filter
// prediction and quality thresholds.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/config"
	"github.com/sells-group/regdoc-cli/internal/quality"
)

// ErrNoModelSet is returned when a source holds no active model set.
var ErrNoModelSet = eris.New("store: no model set")

// ModelSource provides the model set used at startup.
type ModelSource interface {
	LoadModelSet(ctx context.Context) (*quality.ModelSet, error)
}

// ModelStore is a ModelSource that can also be seeded and listed.
type ModelStore interface {
	ModelSource
	SaveModelSet(ctx context.Context, set *quality.ModelSet) error
	ListModelSets(ctx context.Context) ([]ModelSetInfo, error)
	Migrate(ctx context.Context) error
	Close() error
}

// ModelSetInfo summarizes a stored version.
type ModelSetInfo struct {
	Version   string    `json:"version"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (ModelStore, error) {
	switch cfg.Driver {
	case "file", "":
		return NewFileSource(cfg.Path), nil
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// LoadOrDefault loads the active model set, falling back to the placeholder
// set when the source is empty.
func LoadOrDefault(ctx context.Context, src ModelSource) (*quality.ModelSet, error) {
	set, err := src.LoadModelSet(ctx)
	if errors.Is(err, ErrNoModelSet) {
		zap.L().Warn("store: no model set found, using placeholder models")
		return quality.DefaultModelSet(), nil
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

func encodeSet(set *quality.ModelSet) ([]byte, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if set.Version == "" {
		return nil, eris.New("store: model set version is required")
	}
	body, err := json.Marshal(set)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal model set")
	}
	return body, nil
}

func decodeSet(body []byte) (*quality.ModelSet, error) {
	var set quality.ModelSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal model set")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}
