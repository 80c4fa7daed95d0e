package vtml

import (
	"github.com/go-sod/vtml/internal/alert"
	"github.com/go-sod/vtml/internal/anomaly"
	"github.com/go-sod/vtml/internal/database"
	"github.com/go-sod/vtml/internal/maintenance"
	"github.com/go-sod/vtml/internal/modelstore"
	"github.com/go-sod/vtml/internal/predictor"
	"github.com/go-sod/vtml/internal/predictor/iforest"
	"github.com/go-sod/vtml/internal/predictor/kmeans"
	"github.com/go-sod/vtml/internal/predictor/lof"
	"github.com/go-sod/vtml/internal/route"
	"github.com/go-sod/vtml/internal/setup"
	"github.com/go-sod/vtml/internal/stream"
)

var (
	_ setup.PredictorConfigProvider   = (*Config)(nil)
	_ setup.ForestConfigProvider      = (*Config)(nil)
	_ setup.LofConfigProvider         = (*Config)(nil)
	_ setup.KMeansConfigProvider      = (*Config)(nil)
	_ setup.ModelStoreConfigProvider  = (*Config)(nil)
	_ setup.DatabaseConfigProvider    = (*Config)(nil)
	_ setup.NotifierConfigProvider    = (*Config)(nil)
	_ setup.StreamConfigProvider      = (*Config)(nil)
	_ setup.MaintenanceConfigProvider = (*Config)(nil)
)

type Config struct {
	SrvAddr  string `envconfig:"VTML_ADDR" default:":8000"`
	GRPCAddr string `envconfig:"VTML_GRPC_ADDR" default:":9000"`
	// Simultaneous HTTP connections, 0 means unlimited
	MaxConns       int  `envconfig:"VTML_MAX_CONNS" default:"0"`
	MetricsEnabled bool `envconfig:"VTML_METRICS_ENABLED" default:"true"`

	Predictor   predictor.Config
	Forest      iforest.Config
	Lof         lof.Config
	KMeans      kmeans.Config
	ModelStore  modelstore.Config
	Database    database.Config
	Anomaly     anomaly.Config
	Route       route.Config
	Maintenance maintenance.Config
	Alert       alert.Config
	Stream      stream.Config
}

func (c *Config) PredictType() predictor.AlgType {
	return c.Predictor.Type
}

func (c *Config) PredictConfig() *predictor.Config {
	return &c.Predictor
}

func (c *Config) ForestConfig() *iforest.Config {
	return &c.Forest
}

func (c *Config) LofConfig() *lof.Config {
	return &c.Lof
}

func (c *Config) KMeansConfig() *kmeans.Config {
	return &c.KMeans
}

func (c *Config) ModelStoreConfig() *modelstore.Config {
	return &c.ModelStore
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) NotifyConfig() *alert.Config {
	return &c.Alert
}

func (c *Config) StreamConfig() *stream.Config {
	return &c.Stream
}

func (c *Config) MaintenanceConfig() *maintenance.Config {
	return &c.Maintenance
}
