package busapi

import (
	"bus-arrival-service/internal/domain"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider serves recorded upstream responses from a directory:
// <dir>/<lineID>.json for line detail and <dir>/timetable_<lineID>.json for
// timetables. Files use the upstream envelope and go through the same
// decoding and validation as live responses.
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("file provider: stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file provider: %q is not a directory", dir)
	}
	return &FileProvider{dir: dir}, nil
}

func (p *FileProvider) read(op, lineID, name string) (*rawResponse, error) {
	if lineID == "" || strings.ContainsAny(lineID, `/\`) || strings.Contains(lineID, "..") {
		return nil, providerError(op, lineID, &malformedError{errors.New("invalid line id")})
	}

	body, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		return nil, providerError(op, lineID, fmt.Errorf("read fixture: %w", err))
	}
	return &rawResponse{body: body}, nil
}

func (p *FileProvider) LineDetail(ctx context.Context, lineID string, targetOrder int) (*domain.LineDetail, error) {
	raw, err := p.read("file.LineDetail", lineID, lineID+".json")
	if err != nil {
		return nil, err
	}

	d, err := parseLineDetail(raw)
	if err != nil {
		return nil, providerError("file.LineDetail", lineID, err)
	}
	return d, nil
}

func (p *FileProvider) Timetable(ctx context.Context, lineID string, stationID string) ([]domain.TimetableEntry, error) {
	raw, err := p.read("file.Timetable", lineID, "timetable_"+lineID+".json")
	if err != nil {
		return nil, err
	}

	entries, err := parseTimetable(raw)
	if err != nil {
		return nil, providerError("file.Timetable", lineID, err)
	}
	return entries, nil
}
