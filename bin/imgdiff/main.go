package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"imgdiff/internal/compare"
	diffimage "imgdiff/internal/diff/image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"golang.org/x/exp/constraints"
	"golang.org/x/xerrors"
)

const usage = `Pass in 2 images to compare
Usage: imgdiff [flags] <image-1> <image-2>`

type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// flagEnv names the environment variable holding each flag's default.
var flagEnv = map[string]string{
	"threshold":  "IMGDIFF_THRESHOLD",
	"output":     "IMGDIFF_OUTPUT",
	"format":     "IMGDIFF_FORMAT",
	"include-aa": "IMGDIFF_INCLUDE_AA",
	"alpha":      "IMGDIFF_ALPHA",
	"diff-mask":  "IMGDIFF_DIFF_MASK",
	"json":       "IMGDIFF_JSON",
	"log-format": "IMGDIFF_LOG_FORMAT",
}

type options struct {
	threshold float64
	output    string
	format    string
	includeAA bool
	alpha     float64
	diffMask  bool
	json      bool
	logFormat string
	envFile   string
}

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	o, positional, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		var usageErr *UsageError
		if errors.As(err, &usageErr) {
			if usageErr.Message != "" {
				fmt.Fprintln(stdout, usageErr.Message)
			}
			fmt.Fprintln(stdout, usage)
			return 1
		}
		return 2
	}

	logger, err := newLogger(stderr, o.logFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	comparer := &compare.Comparer{
		Log:    logr.FromSlogHandler(logger.Handler()).WithName("compare"),
		Differ: newDiffer(o),
	}

	result, err := comparer.Run(ctx, positional[0], positional[1], o.output)
	if err != nil {
		logger.Error("Failed to compare images", "baseline", positional[0], "target", positional[1], "error", err)
		return 1
	}

	if err := result.Write(stdout, o.json); err != nil {
		logger.Error("Failed to write result", "error", err)
		return 1
	}

	return 0
}

func parseArgs(args []string, stderr io.Writer) (*options, []string, error) {
	o := &options{}

	flags := flag.NewFlagSet("imgdiff", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), usage)
		flags.PrintDefaults()
	}
	flags.Float64Var(&o.threshold, "threshold", envOrDefaultValue(flagEnv["threshold"], 0.1), "Matching threshold from 0 to 1; smaller is more sensitive")
	flags.StringVar(&o.output, "output", envOrDefaultValue(flagEnv["output"], compare.DefaultOutput), "Diff image location (path or s3://bucket/key)")
	flags.StringVar(&o.format, "format", envOrDefaultValue(flagEnv["format"], "pixel"), "Output format (pixel or rectangle)")
	flags.BoolVar(&o.includeAA, "include-aa", envOrDefaultValue(flagEnv["include-aa"], false), "Count anti-aliased pixels as differences")
	flags.Float64Var(&o.alpha, "alpha", envOrDefaultValue(flagEnv["alpha"], 0.1), "Opacity of unchanged pixels in the diff image")
	flags.BoolVar(&o.diffMask, "diff-mask", envOrDefaultValue(flagEnv["diff-mask"], false), "Draw differences over a transparent background")
	flags.BoolVar(&o.json, "json", envOrDefaultValue(flagEnv["json"], false), "Print the result as JSON")
	flags.StringVar(&o.logFormat, "log-format", envOrDefaultValue(flagEnv["log-format"], "text"), "Log format (text or json)")
	flags.StringVar(&o.envFile, "env-file", "", "Read flag defaults from a dotenv file; flags and the environment take precedence")

	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	if o.envFile != "" {
		if err := applyEnvFile(flags, o.envFile); err != nil {
			return nil, nil, err
		}
	}

	if flags.NArg() != 2 {
		return nil, nil, &UsageError{}
	}
	if err := inRange("threshold", o.threshold, 0, 1); err != nil {
		return nil, nil, err
	}
	if err := inRange("alpha", o.alpha, 0, 1); err != nil {
		return nil, nil, err
	}
	switch o.format {
	case "pixel", "rectangle":
	default:
		return nil, nil, &UsageError{Message: fmt.Sprintf("unknown format %q: want pixel or rectangle", o.format)}
	}
	switch o.logFormat {
	case "text", "json":
	default:
		return nil, nil, &UsageError{Message: fmt.Sprintf("unknown log format %q: want text or json", o.logFormat)}
	}

	return o, flags.Args(), nil
}

// applyEnvFile sets the flags that were given neither on the command line
// nor through the environment from the dotenv file at path.
func applyEnvFile(flags *flag.FlagSet, path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return &UsageError{Message: fmt.Sprintf("cannot read env file %s: %v", path, err)}
	}

	explicit := map[string]bool{}
	flags.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	var setErr error
	flags.VisitAll(func(f *flag.Flag) {
		key, ok := flagEnv[f.Name]
		if !ok || explicit[f.Name] || setErr != nil {
			return
		}
		if _, exists := os.LookupEnv(key); exists {
			return
		}
		value, ok := values[key]
		if !ok {
			return
		}
		if err := f.Value.Set(value); err != nil {
			setErr = &UsageError{Message: fmt.Sprintf("invalid %s=%q in %s: %v", key, value, path, err)}
		}
	})

	return setErr
}

func inRange[T constraints.Integer | constraints.Float](name string, value T, lower T, upper T) error {
	// NaN fails both comparisons
	if !(value >= lower && value <= upper) {
		return &UsageError{Message: fmt.Sprintf("invalid %s %v: want a value between %v and %v", name, value, lower, upper)}
	}
	return nil
}

func newDiffer(o *options) diffimage.Differ {
	config := diffimage.DefaultPixelConfig()
	config.Threshold = o.threshold
	config.IncludeAA = o.includeAA
	config.Alpha = o.alpha
	config.DiffMask = o.diffMask

	if o.format == "rectangle" {
		return diffimage.NewRectangleDiff(config)
	}
	return diffimage.NewPixelDiff(config)
}

func newLogger(w io.Writer, format string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("GO_LOG"); ok {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, xerrors.Errorf("failed to parse log level: %w", err)
		}
	}
	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
		// https://opentelemetry.io/docs/specs/otel/logs/data-model/
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = "severitytext"
			case slog.MessageKey:
				a.Key = "body"
			}
			return a
		},
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}
