// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Seed fixes the session seed; empty means the service mints one.
	Seed string `koanf:"seed"`

	// PageSize sets the number of items per assembled feed page.
	PageSize int `koanf:"page_size"`

	// PoolPages sets how many upstream pages feed one candidate pool.
	PoolPages int `koanf:"pool_pages"`

	// QueueSize bounds the in-memory interaction event queue.
	QueueSize int `koanf:"queue_size"`

	// CatalogBaseURL points at the upstream catalog service.
	CatalogBaseURL string `koanf:"catalog_base_url"`

	// CatalogAPIKey authenticates against the upstream catalog service.
	CatalogAPIKey string `koanf:"catalog_api_key"`

	// CatalogRateLimit caps upstream requests per second.
	CatalogRateLimit float64 `koanf:"catalog_rate_limit"`

	// CatalogBurst sets the upstream rate limiter burst.
	CatalogBurst int `koanf:"catalog_burst"`

	// CatalogTimeoutMS bounds a single upstream request.
	CatalogTimeoutMS int `koanf:"catalog_timeout_ms"`

	// StoreLinkBaseURL points at the store-link lookup service.
	StoreLinkBaseURL string `koanf:"storelink_base_url"`

	// StoreLinkClientID and StoreLinkSecret authenticate store-link lookups.
	StoreLinkClientID string `koanf:"storelink_client_id"`
	StoreLinkSecret   string `koanf:"storelink_secret"`

	// Persistence selects the profile/seen store backend: memory, file, badger.
	Persistence string `koanf:"persistence"`

	// DataDir holds file or badger persistence state.
	DataDir string `koanf:"data_dir"`
}

// Persistence backend names accepted by Config.Persistence.
const (
	PersistenceMemory = "memory"
	PersistenceFile   = "file"
	PersistenceBadger = "badger"
)

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:         "info",
		Addr:             ":9090",
		Seed:             "",
		PageSize:         20,
		PoolPages:        2,
		QueueSize:        4096,
		CatalogBaseURL:   "https://api.rawg.io/api",
		CatalogAPIKey:    "",
		CatalogRateLimit: 4,
		CatalogBurst:     4,
		CatalogTimeoutMS: 10_000,
		StoreLinkBaseURL: "https://api.igdb.com/v4",
		Persistence:      PersistenceFile,
		DataDir:          "./data",
	}
	return c
}
