package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/config"
	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/quality"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// trainedSet returns a valid model set with non-zero coefficients.
func trainedSet(version string) *quality.ModelSet {
	set := quality.DefaultModelSet()
	set.Version = version
	for name, m := range set.Models {
		coef := make([]float64, quality.BasisLength(m.Degree))
		coef[0] = m.ValidRange.Midpoint()
		coef[1] = -0.1
		m.Coefficients = coef
		set.Models[name] = m
	}
	return set
}

func TestFileSource_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.yaml")
	src := NewFileSource(path)

	require.NoError(t, src.SaveModelSet(ctx, trainedSet("v1")))

	got, err := src.LoadModelSet(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Version)
	assert.False(t, got.Models[quality.ParamContrast].IsPlaceholder())
	assert.Equal(t, model.FilterSimpleEnhancement, got.Presets.Default)

	infos, err := src.ListModelSets(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "v1", infos[0].Version)
	assert.True(t, infos[0].Active)
}

func TestFileSource_Missing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := src.LoadModelSet(context.Background())
	assert.True(t, errors.Is(err, ErrNoModelSet))

	infos, err := src.ListModelSets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestFileSource_InvalidModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: x\nmodels: {}\n"), 0o644))

	_, err := NewFileSource(path).LoadModelSet(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidModel))
}

func TestFileSource_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: [unclosed"), 0o644))

	_, err := NewFileSource(path).LoadModelSet(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse model set yaml")
}

func TestFileSource_DefaultPath(t *testing.T) {
	assert.Equal(t, "models.yaml", NewFileSource("").path)
}

func TestDecodeYAML_RepositorySample(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "models.yaml"))
	require.NoError(t, err)

	set, err := DecodeYAML(data)
	require.NoError(t, err)
	assert.Equal(t, "2026.03-scans", set.Version)
	for _, p := range quality.Params {
		assert.False(t, set.Models[p].IsPlaceholder(), p)
		assert.Len(t, set.Models[p].Coefficients, quality.BasisLength(2), p)
	}
}

func TestEncodeYAML_RejectsInvalid(t *testing.T) {
	set := trainedSet("v1")
	delete(set.Models, quality.ParamSharpness)

	_, err := EncodeYAML(set)
	assert.True(t, errors.Is(err, model.ErrInvalidModel))
}

func TestLoadOrDefault(t *testing.T) {
	ctx := context.Background()
	src := NewFileSource(filepath.Join(t.TempDir(), "models.yaml"))

	set, err := LoadOrDefault(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "placeholder", set.Version)

	require.NoError(t, src.SaveModelSet(ctx, trainedSet("v2")))
	set, err = LoadOrDefault(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "v2", set.Version)
}

func TestLoadOrDefault_PropagatesErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: x\n"), 0o644))

	_, err := LoadOrDefault(context.Background(), NewFileSource(path))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Driver: "file", Path: "m.yaml"})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, st)

	st, err = Open(ctx, config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mongo"`)
}
