package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"undercroft.game/internal/persistence/archive"
	"undercroft.game/internal/persistence/indexdb"
	persistlog "undercroft.game/internal/persistence/log"
	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/ai"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/level"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world"
	"undercroft.game/internal/transport/observer"
	"undercroft.game/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(cfg.TuningPath)
	if tp == "" {
		tp = filepath.Join(cfg.ConfigDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	runID := strings.TrimSpace(cfg.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	runDir := filepath.Join(cfg.DataDir, "runs", runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("run dir: %v", err)
	}

	w, err := openWorld(cfg, runID, runDir, cats, tune, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetPlanners(ai.Planners())

	var idx *indexdb.SQLiteIndex
	if !cfg.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(runDir, "index", "run.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cfg.ConfigDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	inputLog := persistlog.NewInputLogger(runDir)
	defer inputLog.Close()
	sinks := inputSinks{logger: logger, sinks: []world.InputLogger{inputLog}}
	if idx != nil {
		sinks.sinks = append(sinks.sinks, idx)
	}
	w.SetInputLogger(sinks)

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(runDir, "snapshots", snapshot.FileName(snap.Header.Inputs))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				idx.RecordSnapshot(path, snap)
				if archived, ok, err := archive.ArchiveFinalSnapshot(runDir, path, snap); err != nil {
					logger.Printf("archive run: %v", err)
				} else if ok {
					logger.Printf("run over after %d inputs; archived %s", snap.Header.Inputs, archived)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, runID, w.Metrics(), idx)
	})

	if cfg.AdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				RunID   string        `json:"run_id"`
				Level   string        `json:"level"`
				Metrics world.Metrics `json:"metrics"`
			}{
				RunID:   runID,
				Level:   cfg.Level,
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		obsLogger := log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds)
		obs := observer.NewServer(w, obsLogger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obs.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obs.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled")
	}
	if cfg.PprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	wsLogger := log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds)
	mux.HandleFunc("/v1/ws", ws.NewServer(w, wsLogger).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("run=%s level=%s listening on %s", runID, cfg.Level, cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// openWorld resumes the run from its latest snapshot, or starts it fresh from
// the configured level.
func openWorld(cfg Config, runID, runDir string, cats *catalogs.Catalogs, tune tuning.Tuning, logger *log.Logger) (*world.World, error) {
	if cfg.LoadLatest {
		if path := snapshot.Latest(runDir); path != "" {
			snap, err := snapshot.ReadSnapshot(path)
			if err != nil {
				return nil, fmt.Errorf("read snapshot: %w", err)
			}
			if snap.Header.RunID != runID {
				return nil, fmt.Errorf("snapshot run id mismatch: flag=%s snap=%s", runID, snap.Header.RunID)
			}
			w, err := world.FromSnapshot(cats, tune, snap)
			if err != nil {
				return nil, fmt.Errorf("import snapshot: %w", err)
			}
			logger.Printf("resumed from snapshot=%s inputs=%d tick=%d", filepath.Base(path), w.Inputs(), w.CurrentTick())
			return w, nil
		}
	}

	levelPath := filepath.Join(cfg.ConfigDir, "levels", cfg.Level+".yaml")
	lvl, err := level.Load(levelPath, cats)
	if err != nil {
		return nil, err
	}
	w, err := world.New(world.Config{RunID: runID, Level: lvl.Name, Seed: cfg.Seed}, cats, tune, lvl)
	if err != nil {
		return nil, err
	}
	meta := snapshot.RunMeta{
		RunID:     runID,
		Level:     lvl.Name,
		LevelPath: levelPath,
		Seed:      cfg.Seed,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := snapshot.WriteRunMeta(runDir, meta); err != nil {
		return nil, fmt.Errorf("run meta: %w", err)
	}
	return w, nil
}

// inputSinks fans one input log entry out to every sink. Failures are logged
// and reported but do not stop the run.
type inputSinks struct {
	logger *log.Logger
	sinks  []world.InputLogger
}

func (s inputSinks) WriteInput(entry world.InputLogEntry) error {
	var errs []error
	for _, l := range s.sinks {
		if err := l.WriteInput(entry); err != nil {
			s.logger.Printf("input log: input=%d: %v", entry.Input, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeMetrics(rw http.ResponseWriter, runID string, m world.Metrics, idx *indexdb.SQLiteIndex) {
	fmt.Fprintf(rw, "# HELP undercroft_tick Current simulation tick.\n")
	fmt.Fprintf(rw, "# TYPE undercroft_tick gauge\n")
	fmt.Fprintf(rw, "undercroft_tick{run=%q} %d\n", runID, m.Tick)

	fmt.Fprintf(rw, "# HELP undercroft_inputs_total Player inputs processed.\n")
	fmt.Fprintf(rw, "# TYPE undercroft_inputs_total counter\n")
	fmt.Fprintf(rw, "undercroft_inputs_total{run=%q} %d\n", runID, m.Inputs)

	fmt.Fprintf(rw, "# HELP undercroft_input_log_failures_total Inputs the input log failed to record.\n")
	fmt.Fprintf(rw, "# TYPE undercroft_input_log_failures_total counter\n")
	fmt.Fprintf(rw, "undercroft_input_log_failures_total{run=%q} %d\n", runID, m.InputLogFailures)

	fmt.Fprintf(rw, "# HELP undercroft_actors Actors in the world.\n")
	fmt.Fprintf(rw, "# TYPE undercroft_actors gauge\n")
	fmt.Fprintf(rw, "undercroft_actors{run=%q} %d\n", runID, m.Actors)

	fmt.Fprintf(rw, "# HELP undercroft_session_attached Whether a client controls the player.\n")
	fmt.Fprintf(rw, "# TYPE undercroft_session_attached gauge\n")
	fmt.Fprintf(rw, "undercroft_session_attached{run=%q} %d\n", runID, boolGauge(m.Attached))

	fmt.Fprintf(rw, "# HELP undercroft_game_over Whether the run has ended.\n")
	fmt.Fprintf(rw, "# TYPE undercroft_game_over gauge\n")
	fmt.Fprintf(rw, "undercroft_game_over{run=%q} %d\n", runID, boolGauge(m.GameOver))

	fmt.Fprintf(rw, "# HELP undercroft_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE undercroft_queue_depth gauge\n")
	fmt.Fprintf(rw, "undercroft_queue_depth{run=%q,queue=%q} %d\n", runID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "undercroft_queue_depth{run=%q,queue=%q} %d\n", runID, "attach", m.QueueDepths.Attach)
	fmt.Fprintf(rw, "undercroft_queue_depth{run=%q,queue=%q} %d\n", runID, "leave", m.QueueDepths.Leave)
	fmt.Fprintf(rw, "undercroft_queue_depth{run=%q,queue=%q} %d\n", runID, "journal", m.QueueDepths.Journal)

	if idx != nil {
		fmt.Fprintf(rw, "# HELP undercroft_index_dropped_total Index writes dropped under backpressure.\n")
		fmt.Fprintf(rw, "# TYPE undercroft_index_dropped_total counter\n")
		fmt.Fprintf(rw, "undercroft_index_dropped_total{run=%q} %d\n", runID, idx.Dropped())
	}
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
