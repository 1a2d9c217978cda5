package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/quality"
)

// FileSource keeps a single model set in a YAML file.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource. If path is empty, "models.yaml" is used.
func NewFileSource(path string) *FileSource {
	if path == "" {
		path = "models.yaml"
	}
	return &FileSource{path: path}
}

// LoadModelSet reads and validates the file. A missing file yields
// ErrNoModelSet.
func (f *FileSource) LoadModelSet(ctx context.Context) (*quality.ModelSet, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrNoModelSet, "store: %s", f.path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", f.path)
	}
	return DecodeYAML(data)
}

// SaveModelSet writes set as YAML, replacing the file.
func (f *FileSource) SaveModelSet(ctx context.Context, set *quality.ModelSet) error {
	if err := model.CheckCancelled(ctx); err != nil {
		return err
	}
	data, err := EncodeYAML(set)
	if err != nil {
		return err
	}
	return eris.Wrapf(os.WriteFile(f.path, data, 0o644), "store: write %s", f.path)
}

// ListModelSets reports the file's version as the only, active entry.
func (f *FileSource) ListModelSets(ctx context.Context) ([]ModelSetInfo, error) {
	set, err := f.LoadModelSet(ctx)
	if errors.Is(err, ErrNoModelSet) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var modTime time.Time
	if st, err := os.Stat(f.path); err == nil {
		modTime = st.ModTime().UTC()
	}
	return []ModelSetInfo{{Version: set.Version, Active: true, CreatedAt: modTime}}, nil
}

// Migrate is a no-op for files.
func (f *FileSource) Migrate(context.Context) error { return nil }

// Close is a no-op for files.
func (f *FileSource) Close() error { return nil }

// DecodeYAML parses and validates a model set document.
func DecodeYAML(data []byte) (*quality.ModelSet, error) {
	var set quality.ModelSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, eris.Wrap(err, "store: parse model set yaml")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// EncodeYAML validates set and renders it as YAML.
func EncodeYAML(set *quality.ModelSet) ([]byte, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal model set yaml")
	}
	return data, nil
}
