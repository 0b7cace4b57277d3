package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"superforecaster/calendar"
	"superforecaster/config"
	"superforecaster/formatter"
	"superforecaster/logger"
	"superforecaster/metrics"
	"superforecaster/models"
	"superforecaster/parser"
	"superforecaster/persistence"
	"superforecaster/planner"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

func main() {
	// Define flags
	configPath := flag.String("config", "", "YAML config file (default: $SUPERFORECASTER_CONFIG)")
	format := flag.String("format", "", "Output format: text|json|csv|xlsx (default from config)")
	output := flag.String("output", "", "Output file (required for xlsx; default stdout)")
	segment := flag.String("segment", "", "Only render this segment: nonvip|vip|plus")
	edits := flag.String("edits", "", "CSV edit script applied before rendering")
	admin := flag.String("admin", "", `Admin mode; "true" allows unlocking rows and toggling column locks`)
	now := flag.String("now", "", "Current month as YYYY-MM (default: today)")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")

	// Parse command-line flags
	flag.Parse()

	// Optional .env; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *metricsAddr != "" {
		cfg.Metrics.Address = *metricsAddr
	}
	if *pushGateway != "" {
		cfg.Metrics.PushURL = *pushGateway
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Start metrics server if address provided
	if cfg.Metrics.Address != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			log.Info("metrics server listening", zap.String("addr", cfg.Metrics.Address+"/metrics"))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	loc, _ := cfg.Location()
	anchor := time.Now().In(loc)
	if *now != "" {
		anchor, err = time.ParseInLocation("2006-01", *now, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -now must be YYYY-MM (got: %s)\n", *now)
			os.Exit(1)
		}
	}

	if *segment != "" && !isSegment(*segment) {
		fmt.Fprintf(os.Stderr, "Error: segment must be one of: nonvip, vip, plus (got: %s)\n", *segment)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adapter, err := openAdapter(ctx, cfg.Storage)
	if err != nil {
		log.Error("opening storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		os.Exit(1)
	}

	repo := persistence.NewRepository(adapter, cfg.Storage.KeyPrefix, log)
	p := planner.New(repo, calendar.GenerateMonths(anchor), log)
	defer p.Close()
	p.Load(ctx)

	if *edits != "" {
		isAdmin := planner.IsAdminRequest(url.Values{"admin": {*admin}})
		if err := applyEdits(ctx, p, *edits, isAdmin); err != nil {
			log.Error("applying edits", zap.String("file", *edits), zap.Error(err))
			os.Exit(1)
		}
	}

	grid := p.Grid()
	if *segment != "" {
		grid = filterSegment(grid, *segment)
	}

	if err := writeOutput(cfg.Output, grid); err != nil {
		log.Error("writing output", zap.String("format", cfg.Output.Format), zap.Error(err))
		os.Exit(1)
	}

	// Handle metrics pushing or waiting
	if cfg.Metrics.PushURL != "" {
		jobName := "superforecaster"
		if err := push.New(cfg.Metrics.PushURL, jobName).Gatherer(metrics.Registry).Push(); err != nil {
			log.Error("pushing to Pushgateway", zap.Error(err))
		} else {
			log.Info("metrics pushed to Pushgateway", zap.String("url", cfg.Metrics.PushURL))
		}
	}

	if *wait && cfg.Metrics.Address != "" {
		log.Info("process kept alive for metric scraping; press Ctrl+C to exit")
		// Wait for interrupt signal
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		log.Info("exiting")
	} else if cfg.Metrics.Address != "" && cfg.Metrics.PushURL == "" {
		// Small delay to allow a final scrape for batch runs
		time.Sleep(100 * time.Millisecond)
	}
}

func openAdapter(ctx context.Context, cfg config.StorageConfig) (persistence.Adapter, error) {
	switch cfg.Driver {
	case "memory":
		return persistence.NewMemoryAdapter(), nil
	case "redis":
		return persistence.NewRedisAdapter(ctx, persistence.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
	default:
		return persistence.NewFileAdapter(cfg.Path)
	}
}

func applyEdits(ctx context.Context, p *planner.Planner, path string, admin bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening edit script: %w", err)
	}
	defer file.Close()

	script, err := parser.ParseEdits(file)
	if err != nil {
		return err
	}
	for i, e := range script {
		if err := p.Apply(ctx, e, admin); err != nil {
			return fmt.Errorf("edit %d (%s %s %s): %w", i+1, e.Action, e.Segment, e.Month, err)
		}
	}
	return nil
}

func writeOutput(cfg config.OutputConfig, grid []models.SegmentForecast) error {
	out := os.Stdout
	if cfg.Path != "" {
		f, err := os.Create(cfg.Path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", cfg.Path, err)
		}
		defer f.Close()
		out = f
	}

	// Output based on format
	switch cfg.Format {
	case "xlsx":
		return formatter.WriteXLSX(out, grid)
	case "json":
		_, err := fmt.Fprintln(out, formatter.FormatJSON(grid))
		return err
	case "csv":
		_, err := fmt.Fprint(out, formatter.FormatCSV(grid))
		return err
	default: // "text"
		_, err := fmt.Fprint(out, formatter.FormatText(grid))
		return err
	}
}

func isSegment(key string) bool {
	for _, k := range models.SegmentChain {
		if k == key {
			return true
		}
	}
	return false
}

func filterSegment(grid []models.SegmentForecast, key string) []models.SegmentForecast {
	for _, sf := range grid {
		if sf.Segment.Key == key {
			return []models.SegmentForecast{sf}
		}
	}
	return nil
}
