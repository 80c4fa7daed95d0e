package kmeans

type Config struct {
	// Target cluster count of the route model
	Clusters int `envconfig:"VTML_KMEANS_CLUSTERS" default:"5"`
	// Independent k-means++ restarts, the lowest inertia wins
	Restarts int `envconfig:"VTML_KMEANS_RESTARTS" default:"10"`
	MaxIter  int `envconfig:"VTML_KMEANS_MAX_ITER" default:"300"`
	// Convergence tolerance relative to the mean feature variance
	Tolerance float64 `envconfig:"VTML_KMEANS_TOLERANCE" default:"0.0001"`
}
