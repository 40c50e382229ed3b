package ml

import (
	"os"
	"path/filepath"
)

// ArtifactExt is the on-disk model artifact extension.
const ArtifactExt = ".json"

// ArtifactPath maps a sanitized key to its file in the models directory.
func ArtifactPath(dir, key string) string {
	return filepath.Join(dir, key+ArtifactExt)
}

// LoadModel loads the persisted model for a sanitized key by exact
// filename match. Missing artifacts map to ErrModelNotFound.
func LoadModel(dir, key string) (*SeasonalModel, error) {
	path := ArtifactPath(dir, key)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	model := &SeasonalModel{}
	if err := model.Load(path); err != nil {
		return nil, err
	}
	return model, nil
}
