package modelstore

const (
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend string `envconfig:"VTML_STORE_BACKEND" default:"file"`
	Dir     string `envconfig:"VTML_MODEL_DIR" default:"models"`

	RedisAddr     string `envconfig:"VTML_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"VTML_REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"VTML_REDIS_DB" default:"0"`

	PostgresDSN string `envconfig:"VTML_POSTGRES_DSN" default:"postgres://localhost:5432/vtml?sslmode=disable"`

	// Serialize fit and persist per model kind instead of last-writer-wins
	SerializeFits bool `envconfig:"VTML_MODEL_SERIALIZE_FITS" default:"false"`
}
