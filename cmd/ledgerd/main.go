package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"assetverse/internal/bus"
	"assetverse/internal/journal"
	"assetverse/internal/ledger"
	"assetverse/internal/obs"
	"assetverse/internal/ops"
	"assetverse/internal/schema"
	"assetverse/internal/state"
	"assetverse/internal/store"
	"assetverse/internal/transport/httpapi"
	"assetverse/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if loaded.Profiling.ServerAddress != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: loaded.Profiling.ApplicationName,
			ServerAddress:   loaded.Profiling.ServerAddress,
			Tags: map[string]string{
				"driver": loaded.Store.Driver,
			},
			Logger: profilerLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	s, closeStore, err := openStore(ctx, loaded.Store)
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer closeStore()

	var lastSeq uint64
	if loaded.Recover {
		lastSeq, err = recoverOnStart(ctx, loaded, s)
		if err != nil {
			log.Fatalf("recover failed: %v", err)
		}
	}

	metrics := obs.NewMetrics()
	queue := bus.NewQueue(loaded.Queue)
	sinks := bus.Fanout{queue}

	var writer *journal.Writer
	if loaded.Journal.Dir != "" {
		writer, err = openJournal(ctx, loaded.Journal)
		if err != nil {
			log.Fatalf("journal open failed: %v", err)
		}
		sinks = append(sinks, writer)
	}

	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		queue.Run(ctx, func(e schema.Event) {
			logs.Infof("event seq=%d type=%s id=%s", e.Seq, e.Type(), e.ID)
		})
	}()

	engine, err := ledger.New(s,
		ledger.WithSink(sinks),
		ledger.WithMetrics(metrics),
		ledger.WithAccountOptions(loaded.Accounts),
		ledger.WithLastSeq(lastSeq),
	)
	if err != nil {
		log.Fatalf("ledger init failed: %v", err)
	}

	seeded, err := ops.SeedCatalog(ctx, engine, loaded.Catalog)
	if err != nil {
		log.Fatalf("catalog seed failed: %v", err)
	}
	if seeded > 0 {
		logs.Infof("catalog seeded %d assets", seeded)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		obs.NewExporter(loaded.Server.MetricsNamespace, metrics),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api := httpapi.New(engine, httpapi.Options{
		IdentityHeader: loaded.Server.IdentityHeader,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	server := &http.Server{
		Addr:              loaded.Server.Listen,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logs.Infof("ledger listening on %s, last seq %d", loaded.Server.Listen, lastSeq)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-sys.Shutdown():
		logs.Info("shutdown signal received")
	case err := <-serveErr:
		logs.Errorf("http server failed, err: %+v", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), loaded.Server.ShutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logs.Errorf("http shutdown, err: %+v", err)
	}

	queue.Close()
	<-queueDone
	if writer != nil {
		if err := writer.Close(); errors.Is(err, journal.ErrIncomplete) {
			logs.Errorf("journal dropped %d records and will not replay, err: %+v", writer.Dropped(), err)
		} else if err != nil {
			logs.Errorf("journal close, err: %+v", err)
		}
	}

	snap := metrics.Snapshot()
	logs.Infof("ledger stopped: last seq %d, dropped %d, closed %d", engine.LastSeq(), snap.SinkDrops, snap.SinkClosed)
}

func openStore(ctx context.Context, cfg ops.StoreConfig) (store.Store, func(), error) {
	switch cfg.Driver {
	case ops.DriverPostgres:
		pg, err := conn.NewPostgres(ctx, conn.PostgresOption{
			Host:         cfg.Postgres.Host,
			Port:         cfg.Postgres.Port,
			User:         cfg.Postgres.User,
			Password:     cfg.Postgres.Password,
			Database:     cfg.Postgres.Database,
			SSLMode:      cfg.Postgres.SSLMode,
			ConnString:   cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, err
		}
		s := store.NewPostgres(pg.DB())
		if err := s.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		return s, func() { _ = pg.Close() }, nil
	case ops.DriverRedis:
		client, err := conn.NewRedis(ctx, conn.RedisOption{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

// recoverOnStart replays the journal. A memory store starts empty, so the
// recovered state is written back into it; persistent stores already hold
// the state and only the sequence is carried forward.
func recoverOnStart(ctx context.Context, loaded ops.Loaded, s store.Store) (uint64, error) {
	snapshotPath := loaded.Journal.SnapshotPath
	if snapshotPath != "" {
		if _, err := os.Stat(snapshotPath); errors.Is(err, os.ErrNotExist) {
			snapshotPath = ""
		}
	}
	result, err := state.Recover(ctx, state.RecoverConfig{
		JournalDir:   loaded.Journal.Dir,
		SnapshotPath: snapshotPath,
		FilePrefix:   loaded.Journal.FilePrefix,
	})
	if err != nil {
		return 0, err
	}
	if loaded.Store.Driver == ops.DriverMemory {
		if err := state.Restore(ctx, s, result.State); err != nil {
			return 0, err
		}
	}
	logs.Infof("recovered %d events, last seq %d", result.Replayed, result.LastSeq)
	return result.LastSeq, nil
}

func openJournal(ctx context.Context, cfg ops.JournalConfig) (*journal.Writer, error) {
	jc := journal.DefaultConfig(cfg.Dir)
	if cfg.FilePrefix != "" {
		jc.FilePrefix = cfg.FilePrefix
	}
	if cfg.SegmentMaxBytes > 0 {
		jc.SegmentMaxBytes = cfg.SegmentMaxBytes
	}
	if cfg.SyncInterval > 0 {
		jc.SyncInterval = cfg.SyncInterval
	}
	w, err := journal.NewWriter(jc)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...interface{})  { logs.Infof(format, args...) }
func (profilerLogger) Debugf(_ string, _ ...interface{})         {}
func (profilerLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
