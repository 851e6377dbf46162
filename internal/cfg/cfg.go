package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Драйверы хранилища продуктов.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBolt     = "bolt"
)

type Config struct {
	App    *AppCfg
	Http   *HTTPConfig
	Grpc   *GRPCConfig
	Db     *PGDBCfg
	SQLite *SQLiteCfg
	Bolt   *BoltCfg
	Redis  *RedisCfg
	Kafka  *KafkaCfg
	Outbox *OutboxCfg
}

type AppCfg struct {
	StorageDriver   string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	SwaggerHost  string
	SwaggerOn    bool
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MigrationsURL string
}

// DSN возвращает строку подключения в формате key=value.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type SQLiteCfg struct {
	DSN string
}

type BoltCfg struct {
	Path        string
	OpenTimeout time.Duration
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

// Enabled — кэш включён, только если задан адрес Redis.
func (c *RedisCfg) Enabled() bool {
	return c.Addr != ""
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	MaxRetries        int
}

// Enabled — публикация событий включена, только если заданы брокеры.
func (c *KafkaCfg) Enabled() bool {
	return len(c.Brokers) > 0
}

type OutboxCfg struct {
	BatchSize    int
	PollInterval time.Duration
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	app, err := loadAppCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var db *PGDBCfg
	if app.StorageDriver == DriverPostgres {
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	bolt, err := loadBoltCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if kafka.Enabled() && app.StorageDriver != DriverPostgres {
		log.Warnf("KAFKA_BROKERS is set but STORAGE_DRIVER=%s: %v, product events are disabled",
			app.StorageDriver, e.ErrOutboxRequiresPostgre)
	}

	outbox, err := loadOutboxCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		App:    app,
		Http:   http,
		Grpc:   loadGRPCConfig(),
		Db:     db,
		SQLite: loadSQLiteCfg(),
		Bolt:   bolt,
		Redis:  redis,
		Kafka:  kafka,
		Outbox: outbox,
	}, nil
}

func loadAppCfg(log logger.Logger) (*AppCfg, error) {
	const (
		defaultDriver          = DriverSQLite
		defaultShutdownTimeout = 10 * time.Second
	)

	driver := strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", defaultDriver))
	switch driver {
	case DriverPostgres, DriverSQLite, DriverBolt:
	default:
		log.Errorf(e.ErrUnknownStorageDriver, "invalid STORAGE_DRIVER: %s", driver)
		return nil, e.Wrap("STORAGE_DRIVER="+driver, e.ErrUnknownStorageDriver)
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		log.Errorf(err, "invalid SHUTDOWN_TIMEOUT")
		return nil, err
	}

	return &AppCfg{
		StorageDriver:   driver,
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	swaggerOn, err := parseBoolEnv("SWAGGER_ENABLED", true)
	if err != nil {
		log.Errorf(err, "invalid SWAGGER_ENABLED")
		return nil, err
	}

	return &HTTPConfig{
		SwaggerOn:    swaggerOn,
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		SwaggerHost:  getEnvOrDefault("SWAGGER_HOST", "localhost:"+port),
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost          = "localhost"
		defaultPort          = "5432"
		defaultSSLMode       = "disable"
		defaultMigrationsURL = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:          getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:          getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:          user,
		Password:      password,
		DBName:        dbName,
		SSLMode:       getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsURL: getEnvOrDefault("MIGRATIONS_URL", defaultMigrationsURL),
	}, nil
}

func loadSQLiteCfg() *SQLiteCfg {
	return &SQLiteCfg{
		DSN: getEnvOrDefault("SQLITE_DSN", "fontus.db"),
	}
}

func loadBoltCfg(log logger.Logger) (*BoltCfg, error) {
	const defaultOpenTimeout = time.Second

	openTimeout, err := parseDurationEnv("BOLT_OPEN_TIMEOUT", defaultOpenTimeout)
	if err != nil {
		log.Errorf(err, "invalid BOLT_OPEN_TIMEOUT")
		return nil, err
	}

	return &BoltCfg{
		Path:        getEnvOrDefault("BOLT_PATH", "fontus.bolt"),
		OpenTimeout: openTimeout,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 3 * time.Minute
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	return &RedisCfg{
		Addr:        getEnv("REDIS_ADDR"),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     max(readTimeout, writeTimeout),
		ProductTTL:  productTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "products.changes"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultMaxRetries        = 3
	)

	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	maxRetries, err := parseIntEnv("KAFKA_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("KAFKA_MAX_RETRIES", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		MaxRetries:        maxRetries,
	}, nil
}

func loadOutboxCfg() (*OutboxCfg, error) {
	const (
		defaultBatchSize    = 10
		defaultPollInterval = 5 * time.Second
	)

	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE", err)
	}
	if batchSize <= 0 {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE", e.ErrIncorrectEnvVariable)
	}

	pollInterval, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		return nil, e.Wrap("OUTBOX_POLL_INTERVAL", err)
	}

	return &OutboxCfg{
		BatchSize:    batchSize,
		PollInterval: pollInterval,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return b, nil
}
