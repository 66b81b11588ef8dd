// Command tkb renders a timetable copied from the student portal.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/p-n-ai/tkb/internal/export"
	"github.com/p-n-ai/tkb/internal/platform/config"
	"github.com/p-n-ai/tkb/internal/portal"
	"github.com/p-n-ai/tkb/internal/share"
	"github.com/p-n-ai/tkb/internal/timetable"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	html         bool
	week         int
	byWeek       bool
	onlyToday    bool
	onlyOccupied bool
	termStart    string
	timezone     string
	format       string
	out          string
	share        bool
	baseURL      string
	periods      string
	verbose      bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, now func() time.Time) error {
	var opts options

	flagSet := pflag.NewFlagSet("tkb", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVar(&opts.html, "html", false, "input is a saved portal page rather than copied rows")
	flagSet.IntVar(&opts.week, "week", 0, "academic week to show (default: current week from --term-start, else 1)")
	flagSet.BoolVar(&opts.byWeek, "by-week", false, "only show lessons active in --week")
	flagSet.BoolVar(&opts.onlyToday, "only-today", false, "only show today's column")
	flagSet.BoolVar(&opts.onlyOccupied, "only-occupied", false, "hide periods with no lessons")
	flagSet.StringVar(&opts.termStart, "term-start", os.Getenv("TKB_TERM_START"), "first day of the term, YYYY-MM-DD; weeks start on the Monday on or before it")
	flagSet.StringVar(&opts.timezone, "timezone", envOr("TKB_TIMEZONE", "Asia/Ho_Chi_Minh"), "time zone for today and calendar events")
	flagSet.StringVarP(&opts.format, "format", "f", "text", "output format: text, json, ics or xlsx")
	flagSet.StringVarP(&opts.out, "out", "o", "", "write output to this file instead of stdout")
	flagSet.BoolVar(&opts.share, "share", false, "print a share link for the input and exit")
	flagSet.StringVar(&opts.baseURL, "base-url", envOr("TKB_PUBLIC_URL", "http://localhost:8080/"), "base of share links")
	flagSet.StringVar(&opts.periods, "periods", os.Getenv("TKB_PERIODS_PATH"), "YAML file with period times")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tkb [flags] [file]\n\nReads rows copied from the portal timetable (stdin when no file is given)\nand renders them as a weekly grid.\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 1 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(1))
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := config.LogConfig{Level: level, Format: "text"}.Logger(stderr)

	input, err := readInput(flagSet.Arg(0), stdin)
	if err != nil {
		return err
	}
	text := string(input)
	if opts.html {
		res, err := portal.Extract(bytes.NewReader(input))
		if err != nil {
			return err
		}
		logger.Debug("portal page extracted", "rows", res.Rows, "lessons", res.Lessons)
		text = res.Text
	}

	if opts.share {
		base, err := url.Parse(opts.baseURL)
		if err != nil {
			return fmt.Errorf("parsing --base-url: %w", err)
		}
		_, err = fmt.Fprintln(stdout, share.Link(base, text))
		return err
	}

	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("loading time zone: %w", err)
	}
	today := now().In(loc)

	var termStart time.Time
	if opts.termStart != "" {
		if termStart, err = time.ParseInLocation(time.DateOnly, opts.termStart, loc); err != nil {
			return fmt.Errorf("parsing --term-start: %w", err)
		}
	}

	week := opts.week
	if week < 1 {
		week = 1
		if !termStart.IsZero() {
			week = timetable.WeekOf(termStart, today)
		}
	}

	periods := timetable.DefaultPeriods()
	if opts.periods != "" {
		if periods, err = timetable.LoadPeriods(opts.periods); err != nil {
			return err
		}
	}

	lessons := timetable.BuildLessonSet(text)
	logger.Debug("lessons parsed", "lines", len(timetable.SplitLines(text)), "lessons", len(lessons), "week", week)

	filters := timetable.Filters{
		WeekMode:     opts.byWeek,
		Week:         week,
		OnlyToday:    opts.onlyToday,
		OnlyOccupied: opts.onlyOccupied,
		Today:        timetable.DayCodeOf(today),
	}

	var buf bytes.Buffer
	switch opts.format {
	case "text":
		err = export.Text(&buf, timetable.ComposeGrid(lessons, periods, filters))
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(map[string]any{
			"week":    week,
			"lessons": lessons,
			"grid":    timetable.ComposeGrid(lessons, periods, filters),
		})
	case "ics":
		if termStart.IsZero() {
			return errors.New("--term-start is required for ics output")
		}
		var n int
		n, err = export.ICS(&buf, lessons, export.ICSOptions{TermStart: termStart, Periods: periods, Name: "TKB", Stamp: now()})
		logger.Debug("calendar written", "events", n)
	case "xlsx":
		err = export.XLSX(&buf, timetable.ComposeGrid(lessons, periods, filters))
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
	if err != nil {
		return err
	}

	return writeOutput(opts.out, stdout, buf.Bytes(), logger)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

func writeOutput(path string, stdout io.Writer, data []byte, logger *slog.Logger) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	logger.Info("output written", "path", path, "bytes", len(data))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
