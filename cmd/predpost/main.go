package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	predpost "github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/export"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/sensorapi"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/engine"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "predict":
		err = predictCommand(os.Args[2:])
	case "export":
		err = exportCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("predpost %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (defaults when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return predpost.Run(ctx, *cfgPath)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := predpost.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsTargets = []string{
	"predpost_fleet_machines",
	"predpost_fleet_faulty_machines",
	"predpost_active_alerts",
	"predpost_refresh_failures_total",
	"predpost_journal_queue_length",
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := scanMetrics(resp.Body, statsTargets)
	if err != nil {
		return err
	}

	fmt.Printf("[%s] machines=%.0f faulty=%.0f alerts=%.0f refresh_failures=%.0f journal_queue=%.0f\n",
		time.Now().Format(time.RFC3339),
		values["predpost_fleet_machines"],
		values["predpost_fleet_faulty_machines"],
		values["predpost_active_alerts"],
		values["predpost_refresh_failures_total"],
		values["predpost_journal_queue_length"],
	)
	return nil
}

// scanMetrics picks unlabeled samples out of the Prometheus text format.
func scanMetrics(r io.Reader, keys []string) (map[string]float64, error) {
	out := make(map[string]float64, len(keys))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range keys {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					out[key] = value
				}
			}
		}
	}
	return out, scanner.Err()
}

func predictCommand(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (defaults when empty)")
	var form sensorapi.PredictForm
	fs.StringVar(&form.Temperature, "temperature", "", "Temperature reading")
	fs.StringVar(&form.Vibration, "vibration", "", "Vibration reading")
	fs.StringVar(&form.RPMDev, "rpm-dev", "", "RPM deviation")
	fs.StringVar(&form.CurrentDelta, "current-delta", "", "Current delta")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := form.Parse()
	if err != nil {
		return err
	}

	client, err := newClient(*cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := client.Predict(ctx, req)
	if err != nil {
		return err
	}
	status := predpost.Record{Prediction: res.Prediction}.Status()
	if res.Confidence != nil {
		fmt.Printf("%s (confidence %.1f%%)\n", status, *res.Confidence*100)
		return nil
	}
	fmt.Println(status)
	return nil
}

func exportCommand(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (defaults when empty)")
	page := fs.Int("page", 1, "Page to fetch (1-based)")
	limit := fs.Int("limit", 0, "Rows per page (views.history_page_size when 0)")
	status := fs.String("status", "all", "Status filter: all, normal or fault")
	sortField := fs.String("sort", "timestamp", "Sort field")
	dir := fs.String("dir", "desc", "Sort direction: asc or desc")
	out := fs.String("out", "", "Output file (stdout when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := engine.HistoryQuery{
		Status:    engine.StatusFilter(*status),
		SortField: *sortField,
		Direction: engine.SortDirection(*dir),
	}
	if err := q.Validate(); err != nil {
		return err
	}

	cfg, err := predpost.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *limit <= 0 {
		*limit = cfg.Views.HistoryPageSize
	}
	client, err := sensorapi.New(cfg.Upstream.BaseURL, sensorapi.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	batch, err := client.FetchPage(ctx, *page, *limit)
	if err != nil {
		return err
	}
	rows, err := engine.Query(batch.Records, q)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.WriteCSV(w, rows); err != nil {
		return err
	}
	if *out != "" {
		fmt.Fprintf(os.Stderr, "wrote %d rows (page %d of %d) to %s\n",
			len(rows), batch.Page, engine.PageCount(batch.Total, batch.Limit), *out)
	}
	return nil
}

func newClient(cfgPath string) (*sensorapi.Client, error) {
	cfg, err := predpost.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return sensorapi.New(cfg.Upstream.BaseURL, sensorapi.WithTimeout(cfg.Upstream.Timeout))
}

func printUsage() {
	fmt.Printf(`predpost CLI

Usage:
  predpost <command> [flags]

Commands:
  run        Start the dashboard backend using the provided config
  validate   Load and validate a config file without starting the backend
  stats      Poll the Prometheus metrics endpoint and print fleet gauges
  predict    Submit one sensor reading to the prediction service
  export     Fetch a history page and write it as CSV

Examples:
  predpost run -config ./config.yaml
  predpost validate -config ./config.yaml
  predpost stats -url http://localhost:9100/metrics -interval 1s
  predpost predict -temperature 82.5 -vibration 4.1 -rpm-dev 150 -current-delta 2.5
  predpost export -status fault -sort temperature -dir desc -out faults.csv
`)
}
