package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dragon-forge/internal/config"
	"dragon-forge/internal/forge"
	"dragon-forge/internal/forgefile"
	"dragon-forge/internal/logging"
	"dragon-forge/internal/node"
	"dragon-forge/internal/notify"
	"dragon-forge/internal/recorder"
	"dragon-forge/internal/store"
	httptransport "dragon-forge/internal/transport/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("forge server stopped")
		_ = logging.Close()
		os.Exit(1)
	}
	log.Info().Msg("forge server stopped")
	_ = logging.Close()
}

func run(ctx context.Context, cfg config.AppConfig) error {
	opts, err := nodeOptions(cfg.Forge)
	if err != nil {
		return err
	}
	n, err := node.New(opts)
	if err != nil {
		return fmt.Errorf("build node: %w", err)
	}

	var (
		journal  httptransport.Journal
		rec      *recorder.Recorder
		restored bool
	)
	if cfg.Server.PostgresDSN != "" {
		st, err := openStore(ctx, cfg.Server)
		if err != nil {
			return err
		}
		defer st.Close()
		restored, err = restoreLatest(ctx, st, n)
		if err != nil {
			return err
		}
		journal = st
		rec = recorder.New(recorder.Config{
			SnapshotEvery: cfg.Forge.SnapshotEvery,
			KeepSnapshots: cfg.Forge.KeepSnapshots,
		}, st, n.Engine, n)
		n.Engine.AddSink(rec)
	} else {
		log.Warn().Msg("POSTGRES_DSN not set; forge state lives in memory only")
	}

	if cfg.Forge.BootstrapFile != "" && !restored {
		if err := bootstrap(ctx, cfg.Forge, n); err != nil {
			return err
		}
	}

	notifyCfg, err := notify.ConfigFrom(cfg.Notify)
	if err != nil {
		return fmt.Errorf("notify config: %w", err)
	}
	notifier := notify.NewManager(notifyCfg)
	if notifyCfg.Enabled {
		n.Engine.AddSink(notifier)
		log.Info().Int("targets", len(notifyCfg.Targets)).Msg("notify enabled")
	}

	r := httptransport.NewRouter(n, journal, cfg.Server)
	httptransport.LogRoutes(r)
	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	// The recorder outlives the HTTP server so batches committed by in-flight requests are journaled.
	recCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	if err := notifier.Start(gctx); err != nil {
		return fmt.Errorf("start notify: %w", err)
	}
	n.Engine.StartJanitor(gctx, cfg.Forge.JanitorInterval)
	if cfg.Forge.AutoDeliver {
		n.Oracle.StartAutoDeliver(gctx, cfg.Forge.AutoDeliverInterval, cfg.Forge.AutoDeliverSeed)
		log.Warn().Dur("interval", cfg.Forge.AutoDeliverInterval).Msg("oracle auto delivery enabled")
	}
	if rec != nil {
		g.Go(func() error { return rec.Run(recCtx) })
	}
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopRecorder()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func nodeOptions(cfg config.ForgeConfig) (node.Options, error) {
	var errs []error
	addr := func(name, raw string) forge.Address {
		a, err := forge.ParseAddress(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return a
	}
	opts := node.Options{
		Owner:            addr("FORGE_OWNER", cfg.Owner),
		Vault:            addr("FORGE_VAULT", cfg.Vault),
		Provider:         addr("FORGE_PROVIDER", cfg.Provider),
		OracleAddress:    addr("FORGE_ORACLE_ADDRESS", cfg.OracleAddress),
		OracleFee:        cfg.OracleFee,
		DragonsAddress:   addr("FORGE_DRAGONS_ADDRESS", cfg.DragonsAddress),
		PartyAddress:     addr("FORGE_PARTY_ADDRESS", cfg.PartyAddress),
		RewardsAddress:   addr("FORGE_REWARDS_ADDRESS", cfg.RewardsAddress),
		PointsPerHour:    cfg.PointsPerHour,
		ProbabilityTotal: cfg.ProbabilityTotal,
		MintExpiry:       cfg.MintExpiry,
	}
	return opts, errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.ServerConfig) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns, cfg.AutoMigrate)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		log.Info().Str("migration", store.InitMigration).Msg("schema applied")
	}
	return st, nil
}

func restoreLatest(ctx context.Context, st *store.Store, n *node.Node) (bool, error) {
	snap, err := st.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if err := n.Restore(snap.StateBlob); err != nil {
		return false, fmt.Errorf("restore snapshot %d: %w", snap.AtSeq, err)
	}
	last, err := st.LastEventSeq(ctx)
	if err != nil {
		return false, fmt.Errorf("last event seq: %w", err)
	}
	if last > snap.AtSeq {
		// Events after the snapshot were journaled but their effects are not in it.
		log.Warn().Int64("at_seq", snap.AtSeq).Int64("journal_seq", last).Msg("forge state restored behind journal")
	} else {
		log.Info().Int64("at_seq", snap.AtSeq).Msg("forge state restored")
	}
	return true, nil
}

func bootstrap(ctx context.Context, cfg config.ForgeConfig, n *node.Node) error {
	f, err := forgefile.Load(cfg.BootstrapFile)
	if err != nil {
		return err
	}
	if f.ProbabilityTotal != n.Engine.Settings().ProbabilityTotal {
		return fmt.Errorf("bootstrap file probability_total %d does not match FORGE_PROBABILITY_TOTAL %d",
			f.ProbabilityTotal, n.Engine.Settings().ProbabilityTotal)
	}
	if err := f.Apply(ctx, forgefile.EngineTarget{Engine: n.Engine, Caller: n.Engine.Owner()}); err != nil {
		return fmt.Errorf("apply bootstrap file: %w", err)
	}
	log.Info().Str("file", cfg.BootstrapFile).Int("tiers", len(f.Tiers)).Int("levels", len(f.RarityLevels)).Msg("forge bootstrapped")
	return nil
}
