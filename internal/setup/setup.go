// Package setup reads the environment into the service config and builds the
// shared server environment from it.
package setup

import (
	"context"
	"fmt"

	"github.com/go-sod/vtml/internal/alert"
	"github.com/go-sod/vtml/internal/database"
	"github.com/go-sod/vtml/internal/logging"
	"github.com/go-sod/vtml/internal/maintenance"
	"github.com/go-sod/vtml/internal/modelstore"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/go-sod/vtml/internal/predictor/iforest"
	"github.com/go-sod/vtml/internal/predictor/kmeans"
	"github.com/go-sod/vtml/internal/predictor/lof"
	"github.com/go-sod/vtml/internal/srvenv"
	"github.com/go-sod/vtml/internal/stream"
	"github.com/kelseyhightower/envconfig"
)

type PredictorConfigProvider interface {
	PredictConfig() *predictor.Config
	PredictType() predictor.AlgType
}

type ForestConfigProvider interface {
	ForestConfig() *iforest.Config
}

type LofConfigProvider interface {
	LofConfig() *lof.Config
}

type KMeansConfigProvider interface {
	KMeansConfig() *kmeans.Config
}

type ModelStoreConfigProvider interface {
	ModelStoreConfig() *modelstore.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type NotifierConfigProvider interface {
	NotifyConfig() *alert.Config
}

type StreamConfigProvider interface {
	StreamConfig() *stream.Config
}

type MaintenanceConfigProvider interface {
	MaintenanceConfig() *maintenance.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if storeConfigProvider, ok := config.(ModelStoreConfigProvider); ok {
		logger.Info("Configuring model state")
		state, err := ProvideModelStateFor(ctx, config, storeConfigProvider.ModelStoreConfig(), db)
		if err != nil {
			return nil, closeOnErr(ctx, db, fmt.Errorf("unable create model state: %w", err))
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithModelState(state))
	}

	if notifyConfigProvider, ok := config.(NotifierConfigProvider); ok && notifyConfigProvider.NotifyConfig().AllowAlerts {
		logger.Info("Configuring alerts")
		if db == nil {
			return nil, fmt.Errorf("alerts require a database config")
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithNotifier(ProvideNotifierFor(notifyConfigProvider, db)))
	}

	if streamConfigProvider, ok := config.(StreamConfigProvider); ok && streamConfigProvider.StreamConfig().Enabled {
		logger.Info("Configuring anomaly stream")
		cfg := streamConfigProvider.StreamConfig()
		hub := stream.NewHub(ctx, stream.WithBuffer(cfg.Buffer), stream.WithWriteTimeout(cfg.WriteTimeout))
		serverEnvOpts = append(serverEnvOpts, srvenv.WithStream(hub))
	}

	if maintenanceConfigProvider, ok := config.(MaintenanceConfigProvider); ok {
		logger.Info("Configuring maintenance rules")
		rules, err := maintenance.LoadRules(maintenanceConfigProvider.MaintenanceConfig().RulesFile)
		if err != nil {
			return nil, closeOnErr(ctx, db, fmt.Errorf("unable load maintenance rules: %w", err))
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithMaintenance(maintenance.NewPredictor(rules)))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func closeOnErr(ctx context.Context, db *database.DB, err error) error {
	if db != nil {
		if cerr := db.Close(ctx); cerr != nil {
			logging.FromContext(ctx).Errorf("close db: %v", cerr)
		}
	}
	return err
}

// ProvideModelStateFor opens the model store, registers the anomaly and route
// slots and restores their persisted models.
func ProvideModelStateFor(ctx context.Context, config interface{}, cfg *modelstore.Config, db *database.DB) (*modelstore.State, error) {
	predictConfigProvider, ok := config.(PredictorConfigProvider)
	if !ok {
		return nil, fmt.Errorf("unable read predictor config")
	}
	// Configs the root does not carry are read on their own.
	forestCfg, lofCfg, kmCfg := &iforest.Config{}, &lof.Config{}, &kmeans.Config{}
	if p, ok := config.(ForestConfigProvider); ok {
		forestCfg = p.ForestConfig()
	} else if err := envconfig.Process("", forestCfg); err != nil {
		return nil, fmt.Errorf("dont process iforest env: %w", err)
	}
	if p, ok := config.(LofConfigProvider); ok {
		lofCfg = p.LofConfig()
	} else if err := envconfig.Process("", lofCfg); err != nil {
		return nil, fmt.Errorf("dont process lof env: %w", err)
	}
	if p, ok := config.(KMeansConfigProvider); ok {
		kmCfg = p.KMeansConfig()
	} else if err := envconfig.Process("", kmCfg); err != nil {
		return nil, fmt.Errorf("dont process kmeans env: %w", err)
	}

	anomalyFn, err := ProvidePredictorFor(predictConfigProvider.PredictConfig(), forestCfg, lofCfg)
	if err != nil {
		return nil, fmt.Errorf("unable create predictor provide function: %w", err)
	}
	routeFn := ProvideClustererFor(predictConfigProvider.PredictConfig(), kmCfg)

	store, err := modelstore.NewFromConfig(ctx, cfg, db)
	if err != nil {
		return nil, fmt.Errorf("unable open model store: %w", err)
	}

	opts := append(DecodersFor(forestCfg, kmCfg), modelstore.WithSerializedFits(cfg.SerializeFits))
	state := modelstore.NewState(store, opts...)
	state.Register(predictor.KindAnomaly, anomalyFn)
	state.Register(predictor.KindRoute, routeFn)
	if err := state.Load(ctx); err != nil {
		_ = state.Close(ctx)
		return nil, err
	}
	return state, nil
}

// DecodersFor returns a decoder for every algorithm the service can persist.
func DecodersFor(forestCfg *iforest.Config, kmCfg *kmeans.Config) []modelstore.Option {
	return []modelstore.Option{
		modelstore.WithDecoder(predictor.AlgIsolationForest, func(payload []byte) (predictor.Model, error) {
			return iforest.Decode(payload, iforest.WithConcurrency(forestCfg.Concurrency))
		}),
		modelstore.WithDecoder(predictor.AlgTypeLof, lof.Decode),
		modelstore.WithDecoder(predictor.AlgKMeans, func(payload []byte) (predictor.Model, error) {
			return kmeans.Decode(payload)
		}),
	}
}

func ProvideNotifierFor(provider NotifierConfigProvider, db *database.DB) alert.ProvideFn {
	cfg := provider.NotifyConfig()
	return func(shutdownCh chan<- error) (alert.Manager, error) {
		return alert.New(
			db,
			shutdownCh,
			alert.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			alert.WithInterval(cfg.Interval),
			alert.WithRequestTimeout(cfg.RequestTimeout),
			alert.WithMaxPending(cfg.MaxPending),
			alert.WithTargets(cfg.Targets),
		)
	}
}

func ProvidePredictorFor(cfg *predictor.Config, forestCfg *iforest.Config, lofCfg *lof.Config) (predictor.ProvideFn, error) {
	switch cfg.PredictorType() {
	case predictor.AlgIsolationForest:
		return func() (predictor.Model, error) {
			f, err := iforest.New(
				iforest.WithTrees(forestCfg.Trees),
				iforest.WithMaxSamples(forestCfg.MaxSamples),
				iforest.WithContamination(cfg.Contamination),
				iforest.WithSeed(cfg.Seed),
				iforest.WithConcurrency(forestCfg.Concurrency),
			)
			if err != nil {
				return nil, fmt.Errorf("unable create isolation forest instance: %w", err)
			}
			return f, nil
		}, nil
	case predictor.AlgTypeLof:
		if _, err := lof.DistanceFuncFor(lofCfg.MetricFuncType); err != nil {
			return nil, fmt.Errorf("unable provide distance function: %w", err)
		}
		return func() (predictor.Model, error) {
			l, err := lof.New(
				lof.WithKNum(lofCfg.KNum),
				lof.WithDistance(lofCfg.MetricFuncType),
				lof.WithContamination(cfg.Contamination),
				lof.WithConcurrency(lofCfg.Concurrency),
			)
			if err != nil {
				return nil, fmt.Errorf("unable create lof instance: %w", err)
			}
			return l, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown predictor type: %s", cfg.PredictorType())
	}
}

func ProvideClustererFor(cfg *predictor.Config, kmCfg *kmeans.Config) predictor.ProvideFn {
	return func() (predictor.Model, error) {
		km, err := kmeans.New(
			kmeans.WithClusters(kmCfg.Clusters),
			kmeans.WithRestarts(kmCfg.Restarts),
			kmeans.WithMaxIter(kmCfg.MaxIter),
			kmeans.WithTolerance(kmCfg.Tolerance),
			kmeans.WithSeed(cfg.Seed),
		)
		if err != nil {
			return nil, fmt.Errorf("unable create kmeans instance: %w", err)
		}
		return km, nil
	}
}
