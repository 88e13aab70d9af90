package repositories

import (
	"bus-arrival-service/internal/domain"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type watchFile struct {
	TargetStation struct {
		Name string `yaml:"name" validate:"required"`
	} `yaml:"target_station"`
	FocusLines []struct {
		LineID   string `yaml:"line_id" validate:"required"`
		LineName string `yaml:"line_name"`
	} `yaml:"focus_lines" validate:"dive"`
}

// YAML-backed implementation of the WatchedLineSource port.
// The file is re-read whenever its modification time changes, so edits
// take effect on the next resolve without a restart.
type YAMLWatchedLineSource struct {
	path     string
	validate *validator.Validate

	mu      sync.Mutex
	modTime time.Time
	cached  *domain.WatchConfig
}

func NewYAMLWatchedLineSource(path string) *YAMLWatchedLineSource {
	return &YAMLWatchedLineSource{path: path, validate: validator.New()}
}

// Return the current watch configuration.
func (s *YAMLWatchedLineSource) Load(ctx context.Context) (domain.WatchConfig, error) {
	if s.path == "" {
		return domain.WatchConfig{}, errors.New("yaml watched lines: path is empty")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return domain.WatchConfig{}, fmt.Errorf("yaml watched lines: stat %q: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && info.ModTime().Equal(s.modTime) {
		return cloneWatchConfig(*s.cached), nil
	}

	cfg, err := s.read()
	if err != nil {
		if s.cached != nil {
			slog.WarnContext(ctx, "watch file reload failed, keeping previous config", "path", s.path, "err", err)
			return cloneWatchConfig(*s.cached), nil
		}
		return domain.WatchConfig{}, err
	}

	if s.cached != nil {
		slog.InfoContext(ctx, "watch file reloaded", "path", s.path, "lines", len(cfg.Lines), "target", cfg.Target.Name)
	}
	s.cached = &cfg
	s.modTime = info.ModTime()
	return cloneWatchConfig(cfg), nil
}

func (s *YAMLWatchedLineSource) read() (domain.WatchConfig, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return domain.WatchConfig{}, fmt.Errorf("yaml watched lines: read %q: %w", s.path, err)
	}

	var f watchFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return domain.WatchConfig{}, fmt.Errorf("yaml watched lines: parse %q: %w", s.path, err)
	}
	if err := s.validate.Struct(&f); err != nil {
		return domain.WatchConfig{}, fmt.Errorf("yaml watched lines: validate %q: %w", s.path, err)
	}

	lines := make([]domain.WatchedLine, 0, len(f.FocusLines))
	for _, l := range f.FocusLines {
		lines = append(lines, domain.WatchedLine{LineID: l.LineID, LineName: l.LineName})
	}
	return normalizeWatchConfig(lines, f.TargetStation.Name)
}
