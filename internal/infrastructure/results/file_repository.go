package results

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
)

// FileRepository keeps weekly results in one JSON object keyed
// "<iso week>-<athlete id>".
type FileRepository struct {
	mu   sync.Mutex
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load returns an empty set when the file does not exist yet.
func (r *FileRepository) Load(_ context.Context) (map[string]leaderboard.WeeklyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]leaderboard.WeeklyResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results file %s: %w", r.path, err)
	}
	if len(raw) == 0 {
		return map[string]leaderboard.WeeklyResult{}, nil
	}

	var models map[string]resultModel
	if err := sonic.Unmarshal(raw, &models); err != nil {
		return nil, fmt.Errorf("decode results file %s: %w", r.path, err)
	}

	out := make(map[string]leaderboard.WeeklyResult, len(models))
	for key, m := range models {
		out[key] = m.toDomain()
	}
	return out, nil
}

// Save replaces the file contents. The file is written beside the target
// and renamed into place.
func (r *FileRepository) Save(_ context.Context, results map[string]leaderboard.WeeklyResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	models := make(map[string]resultModel, len(results))
	for key, res := range results {
		models[key] = toModel(res)
	}
	encoded, err := sonic.ConfigStd.MarshalIndent(models, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp results file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp results file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp results file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace results file %s: %w", r.path, err)
	}
	return nil
}
