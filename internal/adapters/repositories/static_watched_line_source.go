package repositories

import (
	"bus-arrival-service/internal/domain"
	"context"
	"fmt"
	"strings"
)

// Fixed WatchedLineSource, used by tests and the CLI.
type StaticWatchedLineSource struct {
	cfg domain.WatchConfig
}

func NewStaticWatchedLineSource(lines []domain.WatchedLine, target string) (*StaticWatchedLineSource, error) {
	cfg, err := normalizeWatchConfig(lines, target)
	if err != nil {
		return nil, err
	}
	return &StaticWatchedLineSource{cfg: cfg}, nil
}

func (s *StaticWatchedLineSource) Load(ctx context.Context) (domain.WatchConfig, error) {
	return cloneWatchConfig(s.cfg), nil
}

// normalizeWatchConfig trims names and rejects blank or duplicate line ids.
func normalizeWatchConfig(lines []domain.WatchedLine, target string) (domain.WatchConfig, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return domain.WatchConfig{}, fmt.Errorf("watch config: target station name cannot be empty")
	}

	seen := make(map[string]struct{}, len(lines))
	out := make([]domain.WatchedLine, 0, len(lines))
	for i, l := range lines {
		id := strings.TrimSpace(l.LineID)
		if id == "" {
			return domain.WatchConfig{}, fmt.Errorf("watch config: line at index %d: line_id cannot be empty", i+1)
		}
		if _, ok := seen[id]; ok {
			return domain.WatchConfig{}, fmt.Errorf("watch config: duplicate line_id %q", id)
		}
		seen[id] = struct{}{}

		out = append(out, domain.WatchedLine{LineID: id, LineName: strings.TrimSpace(l.LineName)})
	}

	return domain.WatchConfig{Lines: out, Target: domain.TargetStop{Name: target}}, nil
}

func cloneWatchConfig(c domain.WatchConfig) domain.WatchConfig {
	lines := make([]domain.WatchedLine, len(c.Lines))
	copy(lines, c.Lines)
	return domain.WatchConfig{Lines: lines, Target: c.Target}
}
