// Command appraise runs a detailed appraisal from a JSON request file and prints
// the results as JSON. Elevation grids fill missing ground levels; the CSV tables
// are written when an export directory is given.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stwalsh4118/floodfas/internal/appraisal"
	"github.com/stwalsh4118/floodfas/internal/curves"
	"github.com/stwalsh4118/floodfas/internal/elevation"
	"github.com/stwalsh4118/floodfas/internal/export"
	"github.com/stwalsh4118/floodfas/internal/logger"
	"github.com/stwalsh4118/floodfas/internal/models"
	"github.com/stwalsh4118/floodfas/internal/observability"
	"github.com/stwalsh4118/floodfas/internal/services"
)

var errUsage = errors.New("usage")

var envKeyReplacer = strings.NewReplacer("-", "_")

// request is the input file. A missing config uses the default flood event settings.
type request struct {
	Config     *models.FloodEventConfig `json:"config"`
	Properties []models.Property        `json:"properties"`
	Nodes      []models.Node            `json:"nodes"`
}

type options struct {
	input     string
	exportDir string
	env       string
	logLevel  string
	grids     []string
	workers   int
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, observability.NewMetrics()); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "appraise: %v\n", err)
		}
		os.Exit(1)
	}
}

// parseOptions reads flags, falling back to FLOODFAS_* environment variables.
func parseOptions(args []string, stderr io.Writer) (options, error) {
	flags := pflag.NewFlagSet("appraise", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringP("input", "i", "", "appraisal request JSON file")
	flags.StringSliceP("grid", "g", nil, "ESRI ASCII elevation grid; repeat for more, later grids take precedence")
	flags.StringP("export-dir", "o", "", "directory to write the CSV tables to")
	flags.String("env", "production", "logging environment (development for console output)")
	flags.String("log-level", "", "minimum log level")
	flags.Int("workers", 1, "properties appraised in parallel")

	if err := flags.Parse(args); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("FLOODFAS")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return options{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	opts := options{
		input:     v.GetString("input"),
		grids:     v.GetStringSlice("grid"),
		exportDir: v.GetString("export-dir"),
		env:       v.GetString("env"),
		logLevel:  v.GetString("log-level"),
		workers:   v.GetInt("workers"),
	}
	if opts.input == "" {
		fmt.Fprintln(stderr, "appraise: --input is required")
		flags.PrintDefaults()
		return options{}, errUsage
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, metrics *observability.Metrics) error {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return err
	}

	log, err := logger.NewWithWriter(opts.env, stderr).WithLevel(opts.logLevel)
	if err != nil {
		return err
	}

	req, err := readRequest(opts.input)
	if err != nil {
		return err
	}

	grids, err := readGrids(opts.grids)
	if err != nil {
		return err
	}

	store, err := curves.Load()
	if err != nil {
		return fmt.Errorf("failed to load reference curves: %w", err)
	}

	cfg := models.DefaultFloodEventConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	engine := appraisal.NewEngine(store, log, opts.workers)
	service := services.NewAppraisalService(engine, nil, metrics, log)
	computed, err := service.Compute(ctx, services.ComputeRequest{
		Inputs: models.Inputs{
			Properties: req.Properties,
			Nodes:      req.Nodes,
			Config:     cfg,
		},
		Grids: grids,
	})
	if err != nil {
		return err
	}

	if opts.exportDir != "" {
		paths, err := export.WriteDir(opts.exportDir, computed.Results)
		if err != nil {
			return err
		}
		log.Info("Exported tables", map[string]interface{}{
			"dir":    opts.exportDir,
			"tables": len(paths),
		})
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(computed.Results)
}

func readRequest(path string) (*request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request %s: %w", path, err)
	}
	return &req, nil
}

func readGrids(paths []string) ([]*elevation.Grid, error) {
	grids := make([]*elevation.Grid, 0, len(paths))
	for _, path := range paths {
		grid, err := readGrid(path)
		if err != nil {
			return nil, err
		}
		grids = append(grids, grid)
	}
	return grids, nil
}

func readGrid(path string) (*elevation.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid: %w", err)
	}
	defer f.Close()

	grid, err := elevation.ParseASCII(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return grid, nil
}
