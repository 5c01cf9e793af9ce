package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/config"
	"github.com/skytrack-data/linkage.report/internal/linker"
	"github.com/skytrack-data/linkage.report/internal/orbit"
	"github.com/skytrack-data/linkage.report/internal/reportviz"
	"github.com/skytrack-data/linkage.report/internal/store"
	"github.com/skytrack-data/linkage.report/internal/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: linkage <command> [flags]

Commands:
  run      fold one or more nights of alerts into the linkage state
  migrate  manage the database schema (up, down, status)
  report   render HTML charts from stored night reports
  version  print build information

Run 'linkage <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "run":
		runCmd(os.Args[2:])
	case "migrate":
		migrateCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "version":
		fmt.Println(version.String())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func openStore(path string) *store.DB {
	db, err := store.Open(path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return db
}

func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dbPath := fs.String("db", "linkage.db", "sqlite database path")
	cfgPath := fs.String("config", "", "tuning config JSON file (built-in defaults when empty)")
	alertsPath := fs.String("alerts", "", "alerts JSON file (array of observations)")
	orbfit := fs.String("orbfit", "", "orbit-fit program path (built-in stub when empty)")
	fs.Parse(args)

	if *alertsPath == "" {
		log.Fatal("run: -alerts is required")
	}

	cfg := &config.TuningConfig{}
	if *cfgPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	raw, err := os.ReadFile(*alertsPath)
	if err != nil {
		log.Fatalf("failed to read alerts: %v", err)
	}
	var obs alert.ObsSet
	if err := json.Unmarshal(raw, &obs); err != nil {
		log.Fatalf("failed to parse alerts: %v", err)
	}
	if len(obs) == 0 {
		log.Fatal("no observations in alerts file")
	}

	var svc orbit.Service
	if *orbfit != "" {
		svc = &orbit.Runner{Program: *orbfit}
	} else {
		svc = &orbit.Stub{}
	}

	db := openStore(*dbPath)
	defer db.Close()
	if err := db.MigrateUp(); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	st, err := db.LoadState(ctx)
	if err != nil {
		log.Fatalf("failed to load state: %v", err)
	}

	l := linker.New(svc, cfg)
	nids := obs.Nids()
	sort.Ints(nids)
	for _, nid := range nids {
		if nid <= st.LastNid {
			log.Printf("skipping night %d: already processed (state at %d)", nid, st.LastNid)
			continue
		}
		next, rep, err := l.ProcessNight(ctx, st, obs.ByNid(nid), nid)
		if err != nil {
			log.Fatalf("night %d failed: %v", nid, err)
		}
		if err := db.SaveState(ctx, next); err != nil {
			log.Fatalf("failed to save state after night %d: %v", nid, err)
		}
		if err := db.InsertReport(ctx, rep); err != nil {
			log.Fatalf("failed to store report for night %d: %v", nid, err)
		}
		st = next
		log.Printf("night %d: %d trajectories, %d pending observations, %d orbit fits, %.2fs",
			nid, rep.Trajectories, rep.PendingObservations, rep.OrbitFits, rep.Elapsed)
	}
}

func migrateCmd(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "linkage.db", "sqlite database path")
	fs.Parse(args)

	if fs.NArg() < 1 {
		log.Fatal("migrate: action required (up, down, status)")
	}

	db := openStore(*dbPath)
	defer db.Close()

	switch fs.Arg(0) {
	case "up":
		if err := db.MigrateUp(); err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := db.MigrateDown(); err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		log.Println("rolled back one migration")
	case "status":
		v, dirty, err := db.MigrateVersion()
		if err != nil {
			log.Fatalf("failed to read migration status: %v", err)
		}
		log.Printf("schema version %d (dirty=%v)", v, dirty)
	default:
		log.Fatalf("unknown migrate action: %s", fs.Arg(0))
	}
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dbPath := fs.String("db", "linkage.db", "sqlite database path")
	outDir := fs.String("out", ".", "output directory for HTML charts")
	limit := fs.Int("limit", 0, "number of most recent nights to include (0 = all)")
	fs.Parse(args)

	db := openStore(*dbPath)
	defer db.Close()

	reports, err := db.ListReports(context.Background(), *limit)
	if err != nil {
		log.Fatalf("failed to list reports: %v", err)
	}
	if len(reports) == 0 {
		log.Fatal("no night reports stored yet")
	}

	render := func(name string, fn func(*os.File) error) {
		path := filepath.Join(*outDir, name)
		f, err := os.Create(path)
		if err != nil {
			log.Fatalf("failed to create %s: %v", path, err)
		}
		defer f.Close()
		if err := fn(f); err != nil {
			log.Fatalf("failed to render %s: %v", path, err)
		}
		log.Printf("wrote %s", path)
	}
	render("linkage_activity.html", func(f *os.File) error {
		return reportviz.RenderNightActivity(f, reports)
	})
	render("trajectory_growth.html", func(f *os.File) error {
		return reportviz.RenderTrajectoryGrowth(f, reports)
	})
}
