package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wonny/aegis-credit/internal/batch"
	"github.com/wonny/aegis-credit/internal/index"
	"github.com/wonny/aegis-credit/internal/network"
	"github.com/wonny/aegis-credit/internal/ratio"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/internal/storage"
	"github.com/wonny/aegis-credit/internal/storage/postgres"
	"github.com/wonny/aegis-credit/internal/storage/sqlite"
	"github.com/wonny/aegis-credit/pkg/config"
	"github.com/wonny/aegis-credit/pkg/database"
	"github.com/wonny/aegis-credit/pkg/logger"
	"github.com/wonny/aegis-credit/pkg/redis"
)

// app carries what every command needs: config, logger, stores, cache
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	stores storage.Stores
	db     *database.DB // nil on sqlite
	redis  *redis.Client
}

// newApp loads config and opens the selected store
func newApp() (*app, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}
	if err := a.openStores(); err != nil {
		return nil, err
	}

	rc, err := redis.New(cfg)
	if err != nil {
		// 캐시 없이도 스코어링은 가능
		log.WithError(err).Warn("Redis unavailable, edge cache disabled")
		rc = redis.NewFromClient(nil)
	}
	a.redis = rc

	return a, nil
}

func (a *app) openStores() error {
	switch a.cfg.Store.Driver {
	case "sqlite":
		s, err := sqlite.NewStore(a.cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.stores = s.Stores()
	default:
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		a.stores = postgres.NewStores(db)
	}

	a.log.WithField("driver", a.cfg.Store.Driver).Debug("Store opened")
	return nil
}

// Close releases the store and the cache connection
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Redis close failed")
	}
	if err := a.stores.Close(); err != nil {
		a.log.WithError(err).Warn("Store close failed")
	}
}

// catalog loads the scenario file
func (a *app) catalog() (*scenario.Catalog, error) {
	cat, err := scenario.Load(a.cfg.Scoring.ScenarioFile)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	return cat, nil
}

// scenario resolves id, then SCENARIO_ACTIVE, then the file's active entry
func (a *app) scenario(id string) (*scenario.WeightScenario, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = a.cfg.Scoring.ActiveScenario
	}
	return cat.Resolve(id)
}

func (a *app) registry() *scenario.Registry {
	return scenario.NewRegistry(a.stores.Scenarios, a.log)
}

// runner builds a batch runner for scn. Redis, when enabled, fronts the graph reads.
func (a *app) runner(scn *scenario.WeightScenario, workers int) *batch.Runner {
	var (
		counter network.EdgeCounter     = a.stores.Graph
		attrs   network.AttributeReader = a.stores.Graph
	)
	if a.redis.Enabled() {
		cache := redis.NewCache(a.redis, "credit")
		counter = network.NewCachedCounter(a.stores.Graph, cache, a.cfg.Redis.EdgeTTL, a.log)
		attrs = network.NewCachedAttributes(a.stores.Graph, cache, a.cfg.Redis.EdgeTTL, a.log)
	}

	if workers <= 0 {
		workers = a.cfg.Scoring.Workers
	}

	return batch.NewRunner(batch.Deps{
		Statements: a.stores.Statements,
		Scores:     a.stores.Scores,
		Attributes: attrs,
		Ratios:     ratio.NewEngine(a.log),
		Network:    network.NewEngine(counter, a.log),
		Aggregator: index.NewAggregator(scn, a.log),
	}, batch.Options{
		Workers:         workers,
		ChunkSize:       a.cfg.Scoring.ChunkSize,
		WriteRPS:        a.cfg.Scoring.WriteRPS,
		MinCompleteness: a.cfg.Scoring.MinCompleteness,
	}, a.log)
}

// signalContext is cancelled on Ctrl+C / SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// jsonOutput reports whether --output json was requested
func jsonOutput() bool {
	return output == "json"
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
