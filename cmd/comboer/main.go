// Command comboer builds particle combos for a set of reactions over a file
// of events and reports how many final combos each reaction produced.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/comboer/internal/combo"
	"github.com/banshee-data/comboer/internal/config"
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/kinematics"
	"github.com/banshee-data/comboer/internal/monitoring"
	"github.com/banshee-data/comboer/internal/reaction"
	"github.com/banshee-data/comboer/internal/store"
	"github.com/banshee-data/comboer/internal/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("comboer: %v", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("comboer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath    string
		reactionsPath string
		eventsPath    string
		dbPath        string
		metricsListen string
		showVersion   bool
	)
	fs.StringVar(&configPath, "config", "", "path to a JSON tuning file (config/comboer.defaults.json when empty)")
	fs.StringVar(&reactionsPath, "reactions", "", "path to a JSON array of reactions")
	fs.StringVar(&eventsPath, "events", "", "path to a JSON-lines event file")
	fs.StringVar(&dbPath, "db", "", "optional sqlite db to record per-event counts in")
	fs.StringVar(&metricsListen, "metrics-listen", "", "optional address to serve /metrics on, e.g. :9100")
	fs.BoolVar(&showVersion, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	if reactionsPath == "" || eventsPath == "" {
		return errors.New("-reactions and -events must be provided")
	}

	var cfg *config.ComboConfig
	if configPath != "" {
		var err error
		if cfg, err = config.LoadComboConfig(configPath); err != nil {
			return err
		}
	} else {
		var err error
		if cfg, configPath, err = config.LoadDefaultConfig(); err != nil {
			return err
		}
	}
	monitoring.ConfigureFromDebugLevel(cfg.GetDebugLevel(), stderr)
	if configPath != "" {
		monitoring.Opsf("[comboer] config %s", configPath)
	}

	reactions, err := reaction.Load(reactionsPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics, err := monitoring.NewComboMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if metricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsListen, mux); err != nil {
				monitoring.Opsf("[comboer] metrics server stopped: %v", err)
			}
		}()
	}

	collab, err := kinematics.NewCollaborators(cfg)
	if err != nil {
		return err
	}
	opts := collab.Options(cfg)
	opts.Metrics = metrics
	comboer, err := combo.New(reactions, opts)
	if err != nil {
		return err
	}

	var st *store.Store
	var runID string
	if dbPath != "" {
		if st, err = store.Open(dbPath); err != nil {
			return err
		}
		defer st.Close()
		cfgJSON, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		r, err := st.StartRun(version.Version, string(cfgJSON))
		if err != nil {
			return err
		}
		runID = r.ID
		monitoring.Opsf("[comboer] run %s recording to %s", runID, dbPath)
	}

	f, err := os.Open(eventsPath)
	if err != nil {
		return fmt.Errorf("failed to open events: %w", err)
	}
	defer f.Close()

	totals := make(map[*reaction.Reaction]int, len(reactions))
	events := 0
	rd := event.NewReader(f)
	for {
		ev, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		start := time.Now()
		comboer.BeginEvent(ev)
		results := comboer.BuildAll()

		outcome := "empty"
		for _, r := range reactions {
			n := len(results[r])
			totals[r] += n
			if n > 0 {
				outcome = "combos"
			}
			if st != nil {
				if err := st.RecordReactionCount(runID, ev.Number, r.Name, n); err != nil {
					return err
				}
			}
		}
		metrics.ObserveEvent(outcome, time.Since(start))
		events++
	}
	monitoring.Opsf("[comboer] processed %d events for %d reactions", events, len(reactions))

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REACTION\tCOMBOS")
	for _, r := range reactions {
		fmt.Fprintf(tw, "%s\t%d\n", r.Name, totals[r])
	}
	return tw.Flush()
}
