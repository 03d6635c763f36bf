// Command slamreplay drives the candidate engine over a JSON-lines
// recording, one time window at a time, and optionally records every
// batch decision to a SQLite run log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/slamfront/internal/candidate"
	"github.com/banshee-data/slamfront/internal/config"
	"github.com/banshee-data/slamfront/internal/frontend"
	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/monitoring"
	"github.com/banshee-data/slamfront/internal/runlog"
	"github.com/banshee-data/slamfront/internal/slamerr"
	"github.com/banshee-data/slamfront/internal/source"
	"github.com/banshee-data/slamfront/internal/timeutil"
	"github.com/banshee-data/slamfront/internal/variants"
	"github.com/banshee-data/slamfront/internal/version"
)

type options struct {
	configPath  string
	input       string
	dbPath      string
	metricsAddr string
	logOps      string
	logDiag     string
	logTrace    string
	pace        bool
}

// report summarises a replay.
type report struct {
	Batches   int
	Outcomes  map[string]int
	Dropped   int
	Vertices  int
	Edges     int
	Clusters  int
	RunlogIDs []string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Engine config file (.json, .yaml or .yml); defaults apply when empty")
	flag.StringVar(&o.input, "input", "-", "JSON-lines recording, or - for stdin")
	flag.StringVar(&o.dbPath, "db", "", "SQLite run log path; overrides runlog_path from the config")
	flag.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flag.StringVar(&o.logOps, "log-ops", "stderr", "Ops log destination: stderr, stdout, a file path, or empty to disable")
	flag.StringVar(&o.logDiag, "log-diag", "", "Diagnostic log destination")
	flag.StringVar(&o.logTrace, "log-trace", "", "Per-candidate trace log destination")
	flag.BoolVar(&o.pace, "pace", false, "Sleep one batch window between batches")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("slamreplay"))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := run(ctx, o, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("slamreplay: %v", err)
	}
	printReport(os.Stdout, rep)
}

func printReport(w io.Writer, rep *report) {
	fmt.Fprintf(w, "batches=%d committed=%d empty=%d no_candidate=%d stale=%d errors=%d dropped=%d\n",
		rep.Batches,
		rep.Outcomes[monitoring.OutcomeCommitted],
		rep.Outcomes[monitoring.OutcomeEmpty],
		rep.Outcomes[monitoring.OutcomeNoCandidate],
		rep.Outcomes[monitoring.OutcomeStaleSamples],
		rep.Outcomes[monitoring.OutcomeError],
		rep.Dropped)
	fmt.Fprintf(w, "graph vertices=%d edges=%d clusters=%d\n", rep.Vertices, rep.Edges, rep.Clusters)
}

// openLog resolves a log destination flag. The returned close func is
// never nil.
func openLog(dest string) (io.Writer, func(), error) {
	switch dest {
	case "":
		return nil, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	case "stdout":
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log %s: %w", dest, err)
	}
	return f, func() { f.Close() }, nil
}

func setupLogging(o options) (func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	writers := make([]io.Writer, 3)
	for i, dest := range []string{o.logOps, o.logDiag, o.logTrace} {
		w, c, err := openLog(dest)
		if err != nil {
			closeAll()
			return nil, err
		}
		writers[i] = w
		closers = append(closers, c)
	}
	frontend.SetLogWriters(writers[0], writers[1], writers[2])
	variants.SetLogWriters(writers[0], writers[1], writers[2])
	candidate.SetLogWriters(writers[0], writers[1], writers[2])
	monitoring.SetOutput(writers[0], "[slamreplay] ")
	return func() {
		frontend.SetLogWriters(nil, nil, nil)
		variants.SetLogWriters(nil, nil, nil)
		candidate.SetLogWriters(nil, nil, nil)
		monitoring.SetOutput(os.Stderr, "[slamreplay] ")
		closeAll()
	}, nil
}

func loadConfig(path string) (*config.EngineConfig, error) {
	if path == "" {
		return config.EmptyEngineConfig(), nil
	}
	return config.LoadEngineConfig(path)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func run(ctx context.Context, o options, clock timeutil.Clock) (*report, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	closeLogs, err := setupLogging(o)
	if err != nil {
		return nil, err
	}
	defer closeLogs()

	reg := prometheus.NewRegistry()
	if o.metricsAddr != "" {
		srv := &http.Server{Addr: o.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				monitoring.Logf("metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	opts := frontend.OptionsFromConfig(cfg)
	opts.Metrics = monitoring.NewEngineMetrics(reg)
	opts.Clock = clock
	fe := frontend.New(opts)

	var store *runlog.Store
	dbPath := o.dbPath
	if dbPath == "" {
		dbPath = cfg.GetRunlogPath()
	}
	if dbPath != "" {
		db, err := runlog.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		store = runlog.NewStore(db, clock)
	}

	in, err := openInput(o.input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	r := &replay{
		fe:      fe,
		store:   store,
		batcher: source.NewBatcher(source.NewReader(in), cfg.GetBatchWindow()),
		rep:     &report{Outcomes: make(map[string]int)},
	}
	for {
		if err := ctx.Err(); err != nil {
			return r.rep, err
		}
		done, err := r.step(ctx)
		if err != nil {
			return r.rep, err
		}
		if done {
			break
		}
		if o.pace {
			clock.Sleep(cfg.GetBatchWindow())
		}
	}

	g := fe.Graph()
	r.rep.Vertices, r.rep.Edges, r.rep.Clusters = g.NumVertices(), g.NumEdges(), g.NumClusters()
	return r.rep, nil
}

type replay struct {
	fe      *frontend.Frontend
	store   *runlog.Store
	batcher *source.Batcher
	rep     *report
}

// step processes one batch. It reports done once the input is exhausted
// and nothing useful is left to carry.
func (r *replay) step(ctx context.Context) (bool, error) {
	batch, err := r.batcher.Next()
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read batch: %w", err)
	}

	res, err := r.fe.Process(ctx, batch)
	var stale *slamerr.UnresolvableLeftoverError
	if errors.As(err, &stale) {
		n := batch.DropSamplesBefore(stale.Floor)
		r.rep.Dropped += n
		monitoring.Logf("dropped %d inertial samples older than %d", n, stale.Floor)
		if err := r.record(batch, res, err); err != nil {
			return false, err
		}
		res, err = r.fe.Process(ctx, batch)
	}
	if recErr := r.record(batch, res, err); recErr != nil {
		return false, recErr
	}

	switch {
	case err == nil && res.Outcome == monitoring.OutcomeEmpty && r.batcher.Exhausted():
		r.rep.Dropped += batch.Len()
		monitoring.Logf("end of input: dropping %d measurements that form no cluster", batch.Len())
		return true, nil
	case err == nil:
		r.batcher.Carry(res.Leftovers...)
	case errors.Is(err, slamerr.ErrNoAdmissibleCandidate):
		if r.batcher.Exhausted() {
			r.rep.Dropped += batch.Len()
			monitoring.Logf("end of input: dropping %d measurements with no admissible candidate", batch.Len())
			return true, nil
		}
		r.batcher.Carry(batch.All()...)
	case errors.Is(err, variants.ErrBatchTooLarge):
		r.rep.Dropped += batch.Len()
		monitoring.Logf("dropping batch: %v", err)
	default:
		return false, err
	}
	return false, nil
}

func (r *replay) record(batch *measurement.Batch, res *frontend.Result, err error) error {
	r.rep.Batches++
	r.rep.Outcomes[res.Outcome]++
	if r.store == nil {
		return nil
	}
	d := decision(batch, res, err)
	if err := r.store.Insert(d); err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	r.rep.RunlogIDs = append(r.rep.RunlogIDs, d.DecisionID)
	return nil
}

func decision(batch *measurement.Batch, res *frontend.Result, err error) *runlog.Decision {
	d := &runlog.Decision{
		SeedClusters:   res.Stats.Seeds,
		Variants:       res.Stats.Variants,
		ConnectedCount: res.Connected,
		Outcome:        res.Outcome,
	}
	for i, m := range batch.All() {
		ts := m.Timestamp()
		if i == 0 || ts < d.BatchStart {
			d.BatchStart = ts
		}
		if i == 0 || ts > d.BatchStop {
			d.BatchStop = ts
		}
	}
	if res.Selected != nil {
		d.CandidateID = res.Selected.ID.String()
		shift := res.Metrics.Timeshift
		d.Timeshift = &shift
		d.Unused = res.Metrics.Unused
	}
	if err != nil {
		d.Error = err.Error()
	}
	return d
}
