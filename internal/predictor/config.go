package predictor

type AlgType string

const (
	AlgTypeLof         AlgType = "LOF"
	AlgIsolationForest AlgType = "ISOLATION_FOREST"
	AlgKMeans          AlgType = "KMEANS"
)

type Config struct {
	// Outlier algorithm used for the anomaly model slot
	Type AlgType `envconfig:"VTML_ANOMALY_ALGORITHM" default:"ISOLATION_FOREST"`
	// Expected share of outliers in every batch
	Contamination float64 `envconfig:"VTML_ANOMALY_CONTAMINATION" default:"0.1"`
	// Seed shared by every randomized model
	Seed int64 `envconfig:"VTML_MODEL_SEED" default:"42"`
}

func (c Config) PredictorType() AlgType {
	return c.Type
}

func (c Config) PredictorConfig() Config {
	return c
}
