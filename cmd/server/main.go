package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxelstruct.ai/internal/buildsvc"
	persistlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 1337, "world seed recorded in snapshots")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the structure index")
		recent     = flag.Int("recent", 4096, "built structures kept addressable by id")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
		snapOnExit = flag.Bool("snapshot_on_exit", true, "write a snapshot of recent structures on shutdown")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune, _ = tuning.Load("")
	}

	worldDir := filepath.Join(*dataDir, "worlds", tune.WorldID)
	snapDir := filepath.Join(worldDir, "snapshots")
	_ = os.MkdirAll(worldDir, 0o755)

	// Optional read-model index (does not affect layout determinism).
	idx, err := openRuntimeIndex(worldDir, tune.WorldID, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	buildLog := persistlog.NewBuildLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer buildLog.Close()
	defer auditLog.Close()
	audit := multiAuditLogger{a: auditLog, b: idx}

	cfg := buildsvc.Config{
		Registry: families.Default(tune),
		Tuning:   tune,
		BuildLog: buildLog,
		Logger:   logger,
		Recent:   *recent,
	}
	if idx != nil {
		cfg.Index = idx
	}
	svc := buildsvc.New(cfg)

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = buildsvc.LatestSnapshot(snapDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != tune.WorldID {
			logger.Fatalf("snapshot world id mismatch: tuning=%s snap=%s", tune.WorldID, snap.Header.WorldID)
		}
		n := svc.Restore(snap, audit)
		logger.Printf("resumed from snapshot=%s structures=%d/%d", filepath.Base(snapshotToLoad), n, len(snap.Structures))
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt := &routes{
		svc:    svc,
		idx:    idx,
		log:    logger,
		seed:   *seed,
		snapTo: snapDir,
		admin:  envBool("VS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
	}
	if !rt.admin {
		logger.Printf("admin endpoints disabled (VS_ENABLE_ADMIN_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           rt.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s families=%v tuning=%s", *addr, svc.Families(), svc.TuningDigest()[:12])
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	if *snapOnExit && svc.Counters().Recent > 0 {
		path, snap, err := svc.WriteSnapshot(snapDir, *seed)
		if err != nil {
			logger.Printf("snapshot write: %v", err)
		} else {
			logger.Printf("wrote snapshot=%s structures=%d", filepath.Base(path), len(snap.Structures))
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
		}
	}
	if idx != nil {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		_ = idx.Flush(ctx2)
		cancel2()
	}
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

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
