package config

// Config is the top-level YAML structure.
type Config struct {
	Version string     `yaml:"version"`
	Engine  EngineConf `yaml:"engine"`
	Rules   RulesConf  `yaml:"rules"`
	API     APIConf    `yaml:"api"`
	Sinks   SinksConf  `yaml:"sinks"`
	HTTP    HTTPConf   `yaml:"http"`
}

// EngineConf holds the event queue settings.
type EngineConf struct {
	QueueDepth     int `yaml:"queue_depth"`
	EventTimeoutMs int `yaml:"event_timeout_ms"`
}

// RulesConf holds the tunable detector thresholds. Changing any of these
// requires reconstructing the detector set; the loader's watch callback does
// exactly that.
type RulesConf struct {
	ConsecutiveCountThreshold   int     `yaml:"consecutive_count_threshold"`
	HighVolumeMultiplier        float64 `yaml:"high_volume_multiplier"`
	HighVolumeWindowHours       int     `yaml:"high_volume_window_hours"`
	StockMutationTimeoutMinutes int     `yaml:"stock_mutation_timeout_minutes"`

	// ReleaseSteps maps a released disposition URN to the business steps the
	// release detector watches for it. Empty means use the built-in CBV
	// mapping.
	ReleaseSteps map[string][]string `yaml:"release_steps"`
}

// APIConf configures the iD Cloud event source.
type APIConf struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageDelayMs    int    `yaml:"page_delay_ms"`
	QueryHoursBack int    `yaml:"query_hours_back"`
	MaxEvents      int    `yaml:"max_events"` // 0 = unlimited
}

// SinksConf configures alert delivery.
type SinksConf struct {
	Console ConsoleSinkConf `yaml:"console"`
	File    FileSinkConf    `yaml:"file"`
	Webhook WebhookSinkConf `yaml:"webhook"`
}

// ConsoleSinkConf enables logging alerts to the process log.
type ConsoleSinkConf struct {
	Enabled    bool     `yaml:"enabled"`
	Severities []string `yaml:"severities"` // empty = all
}

// FileSinkConf enables appending alerts to a JSONL file.
type FileSinkConf struct {
	Enabled    bool     `yaml:"enabled"`
	Path       string   `yaml:"path"`
	Severities []string `yaml:"severities"`
}

// WebhookSinkConf enables POSTing alerts to an HTTP endpoint.
type WebhookSinkConf struct {
	Enabled    bool              `yaml:"enabled"`
	URL        string            `yaml:"url"`
	Headers    map[string]string `yaml:"headers"`
	Severities []string          `yaml:"severities"`
}

// HTTPConf configures the HTTP server.
type HTTPConf struct {
	Addr string `yaml:"addr"`
}
