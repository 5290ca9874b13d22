package config

import "time"

type DB struct {
	URL string `envconfig:"URL" required:"true"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"gamewallet:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	DefaultRequestsPerMinute int           `envconfig:"DEFAULT_RPM" default:"100"`
	Window                   time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Auth struct {
	EncryptionKey        string   `envconfig:"ENCRYPTION_KEY" required:"true"`
	AllowedIPEnforcement bool     `envconfig:"ALLOWED_IP_ENFORCEMENT" default:"true"`
	ExcludePaths         []string `envconfig:"EXCLUDE_PATHS" default:"/healthz,/docs"`
	LastUsedBumpInterval time.Duration `envconfig:"LAST_USED_BUMP_INTERVAL" default:"1h"`
	APIKeyCacheTTL       time.Duration `envconfig:"API_KEY_CACHE_TTL" default:"1m"`
}

type EventBus struct {
	QueueCapacity    int           `envconfig:"QUEUE_CAPACITY" default:"10000"`
	Workers          int           `envconfig:"WORKERS" default:"8"`
	BackpressureWait time.Duration `envconfig:"BACKPRESSURE_WAIT" default:"200ms"`
}

type AML struct {
	MaxRetries      int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"RETRY_BASE_DELAY" default:"500ms"`
	HistoryWindow   time.Duration `envconfig:"HISTORY_WINDOW" default:"720h"`
}

type Log struct {
	Level  int    `envconfig:"LEVEL" default:"0"`
	Format string `envconfig:"FORMAT" default:"json"`
	Prefix string `envconfig:"PREFIX" default:"[gamewallet]"`
}

type Server struct {
	Host              string        `envconfig:"HOST" default:"localhost"`
	Port              int           `envconfig:"PORT" default:"3000"`
	OperationDeadline time.Duration `envconfig:"OPERATION_DEADLINE" default:"5s"`
}

// App is the immutable, environment-loaded root configuration. cmd/server
// passes its fields explicitly to each constructor rather than exposing
// them via package-level globals (§9).
type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Redis     *Redis     `envconfig:"REDIS"`
	Auth      *Auth      `envconfig:"AUTH"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	EventBus  *EventBus  `envconfig:"EVENT_BUS"`
	AML       *AML       `envconfig:"AML"`
}
