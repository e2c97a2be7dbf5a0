package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"CandleScope/internal/model"
)

// LoadState reads the ledger state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(fs afero.Fs, filePath string) (*model.LedgerState, error) {
	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.LedgerState{}, nil
		}
		return nil, err
	}
	var state model.LedgerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the ledger state to a JSON file.
func SaveState(fs afero.Fs, filePath string, state *model.LedgerState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return afero.WriteFile(fs, filePath, data, 0644)
}
