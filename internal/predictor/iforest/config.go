package iforest

type Config struct {
	// Number of isolation trees
	Trees int `envconfig:"VTML_IFOREST_TREES" default:"100"`
	// Upper bound of the per-tree subsample
	MaxSamples int `envconfig:"VTML_IFOREST_MAX_SAMPLES" default:"256"`
	// Trees grown in parallel, 0 means one per CPU
	Concurrency int `envconfig:"VTML_IFOREST_CONCURRENCY" default:"0"`
}
