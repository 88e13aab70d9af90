package main

import (
	"bus-arrival-service/internal/api/dto"
	"bus-arrival-service/internal/app"
	"bus-arrival-service/internal/config"
	"bus-arrival-service/internal/platform/obs"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	mode := flag.String("mode", "query", "query|resolve|timetable")
	line := flag.String("line", "", "line name (query) or line id (timetable)")
	timeout := flag.Duration("timeout", time.Minute, "overall deadline")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	if err := run(*mode, *line, *timeout, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(mode, line string, timeout time.Duration, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays valid JSON.
	logger := obs.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}

	var result any
	switch mode {
	case "query":
		if line == "" {
			resp := svc.Aggregator.Query(ctx)
			data := make([]dto.LineRealTimeInfo, 0, len(resp.Lines))
			for _, l := range resp.Lines {
				data = append(data, dto.FromLineReport(l))
			}
			result = data
			break
		}
		report, err := svc.Aggregator.LineByName(ctx, line)
		if err != nil {
			return err
		}
		result = dto.FromLineReport(report)

	case "resolve":
		lines, err := svc.Aggregator.ResolveLines(ctx)
		if err != nil {
			return err
		}
		res := make([]dto.ResolvedLineResponse, 0, len(lines))
		for _, l := range lines {
			res = append(res, dto.ResolvedLineResponse{
				LineID:            l.LineID,
				LineName:          l.LineName,
				TargetStationID:   l.TargetStopID,
				TargetStationName: l.TargetStopName,
				TargetOrder:       l.TargetStopOrder,
			})
		}
		result = res

	case "timetable":
		if line == "" {
			return errors.New("-line is required for timetable mode")
		}
		entries, ok := svc.Timetables.DepartureTimetable(ctx, line)
		if !ok {
			return fmt.Errorf("no timetable for line %s", line)
		}
		res := make([]dto.TimetableEntryResponse, 0, len(entries))
		for _, e := range entries {
			res = append(res, dto.TimetableEntryResponse{Time: e.Time, Desc: e.Desc})
		}
		result = res

	default:
		return fmt.Errorf("unknown mode %q (want query|resolve|timetable)", mode)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
