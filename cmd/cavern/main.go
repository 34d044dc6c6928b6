// Package main is the entry point for cavern.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/samdwyer/cavern/internal/game"
	"github.com/samdwyer/cavern/internal/level"
	"github.com/samdwyer/cavern/internal/plan"
	"github.com/samdwyer/cavern/internal/telemetry"
	"github.com/samdwyer/cavern/internal/world"
)

type options struct {
	seed      int64
	plan      string
	watch     bool
	dump      bool
	rooms     bool
	verbosity int
	logFile   string
}

func main() {
	// Load .env file for local development
	// This makes HONEYCOMB_CAVERN_API_KEY available
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	opts := parseFlags()

	// Set up OTEL environment variables from our .env variables
	setupOTelEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		log.Printf("Warning: telemetry setup failed: %v", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
	}

	p, err := choosePlan(opts)
	if err != nil {
		log.Fatalf("Failed to load plan: %v", err)
	}

	if opts.dump || !term.IsTerminal(int(os.Stdout.Fd())) {
		logger := telemetry.NewLogger(opts.verbosity)
		if err := dump(ctx, opts, p, logger); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		return
	}

	if err := view(ctx, opts, p); err != nil {
		log.Fatalf("Viewer error: %v", err)
	}
}

// parseFlags reads command line flags. CAVERN_SEED and CAVERN_PLAN supply
// defaults for -seed and -plan.
func parseFlags() options {
	var opts options
	seed, _ := strconv.ParseInt(os.Getenv("CAVERN_SEED"), 10, 64)

	flag.Int64Var(&opts.seed, "seed", seed, "level seed (0 picks one from the clock)")
	flag.StringVar(&opts.plan, "plan", os.Getenv("CAVERN_PLAN"), "embedded plan id or path to a plans yaml file")
	flag.BoolVar(&opts.watch, "watch", false, "regenerate when the plan file changes")
	flag.BoolVar(&opts.dump, "dump", false, "print the level as text instead of opening the viewer")
	flag.BoolVar(&opts.rooms, "rooms", false, "mark room nodes in text dumps")
	flag.IntVar(&opts.verbosity, "v", 0, "log verbosity")
	flag.StringVar(&opts.logFile, "log", "", "file to write viewer logs to")
	flag.Parse()

	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
	}
	return opts
}

// isPlanFile reports whether the -plan value names a file on disk rather than
// an embedded plan id.
func isPlanFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func choosePlan(opts options) (plan.Plan, error) {
	if isPlanFile(opts.plan) {
		registry, err := plan.LoadFile(opts.plan)
		if err != nil {
			return plan.Plan{}, err
		}
		return *registry.First(), nil
	}

	registry, err := plan.Load()
	if err != nil {
		return plan.Plan{}, err
	}
	if opts.plan == "" {
		return *registry.Pick(rand.New(rand.NewSource(opts.seed))), nil
	}
	p := registry.GetByID(opts.plan)
	if p == nil {
		return plan.Plan{}, fmt.Errorf("unknown plan %q", opts.plan)
	}
	return *p, nil
}

// dump generates one level and prints it. With -watch it keeps printing a
// fresh level each time the plan file changes.
func dump(ctx context.Context, opts options, p plan.Plan, logger logr.Logger) error {
	if err := printLevel(ctx, opts, p, logger); err != nil {
		return err
	}
	if !opts.watch || !isPlanFile(opts.plan) {
		return nil
	}

	w, err := plan.Watch(opts.plan)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case registry := <-w.Plans:
			if err := printLevel(ctx, opts, *registry.First(), logger); err != nil {
				logger.Error(err, "regeneration failed")
			}
		case err := <-w.Errors:
			logger.Error(err, "plan file rejected", "path", opts.plan)
		}
	}
}

func printLevel(ctx context.Context, opts options, p plan.Plan, logger logr.Logger) error {
	cfg := level.DefaultConfig(p)
	cfg.Seed = opts.seed
	cfg.Log = logger

	l, err := level.Start(ctx, cfg).Await(ctx)
	if err != nil {
		return err
	}

	out := world.NewTextWriter(l.Grid.Extent())
	l.Grid.Paint(out)
	if opts.rooms {
		for _, id := range l.Graph.RoomNodes() {
			out.Mark(l.Graph.Node(id).Cell, 'o')
		}
	}
	if _, err := out.WriteTo(os.Stdout); err != nil {
		return err
	}
	fmt.Printf("%s seed=%d attempt=%d nodes=%d rooms=%d fingerprint=%016x\n",
		l.Plan.ID, l.Seed, l.Attempt, l.Graph.Len(), len(l.Graph.RoomNodes()), l.Fingerprint)
	return nil
}

// view runs the interactive viewer. Logs would corrupt the terminal, so
// they are discarded unless -log names a file.
func view(ctx context.Context, opts options, p plan.Plan) error {
	logger := logr.Discard()
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = telemetry.NewLoggerTo(f, opts.verbosity)
	}

	cfg := game.DefaultConfig(p)
	cfg.Seed = opts.seed
	cfg.Log = logger

	g, err := game.New(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	if opts.watch && isPlanFile(opts.plan) {
		w, err := plan.Watch(opts.plan)
		if err != nil {
			return err
		}
		defer w.Close()

		go func() {
			for {
				select {
				case registry, ok := <-w.Plans:
					if !ok {
						return
					}
					g.Reload(*registry.First())
				case err, ok := <-w.Errors:
					if !ok {
						return
					}
					logger.Error(err, "plan file rejected", "path", opts.plan)
				}
			}
		}()
	}

	return g.Run(ctx)
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	// Always set endpoint to Honeycomb
	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")

	// Always set headers from our API key - the .env file may have an unexpanded
	// variable reference that doesn't work, so we construct it properly here
	apiKey := os.Getenv("HONEYCOMB_CAVERN_API_KEY")
	dataset := os.Getenv("HONEYCOMB_CAVERN_DATASET")
	if dataset == "" {
		dataset = "cavern"
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}
