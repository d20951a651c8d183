package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBDriver        string // mysql or sqlite
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBPath          string // sqlite file path, ":memory:" allowed
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "drop"(删除重建)

	// Server
	ServerPort      string
	CORSAllowOrigin string

	// Redis, used for the cross-instance building lock. Empty host disables it.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MQTT配置
	MQTTBrokerURL   string // MQTT服务器地址，如 tcp://broker.example.com:1883, empty disables MQTT
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTQoS         int
	MQTTRetained    bool
	MQTTSSLEnabled  bool
	MQTTTopicPrefix string

	// JWT Authentication
	JWTSecretKey string

	// Admin
	DefaultAdminPassword string

	// Building seeded at start and used when a request names none
	DefaultBuildingCode string
	DefaultBuildingName string

	// Lockup
	CollaboratorTimeout time.Duration // per call to presence/audit/notify collaborators
	BuildingLockTTL     time.Duration // lease on the Redis building lock
	BuildingLockWait    time.Duration // how long a protocol waits to take the building lock

	// Scheduled lockup jobs, times are HH:MM in JobsTimezone
	JobsEnabled        bool
	JobsTimezone       string // IANA name, empty means the server's local zone
	LockupWarningTime  string
	LockupCriticalTime string
	DayRolloverTime    string

	// Rate limits for kiosk badge-scan routes
	ScanRateLimit float64
	ScanRateBurst int
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	switch strings.ToUpper(envType) {
	case "LOCAL":
		prefix = "LOCAL_"
	case "SERVER":
		prefix = "SERVER_"
	default:
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		EnvType: envType,

		DBDriver:        strings.ToLower(getEnv(prefix+"DB_DRIVER", getEnv("DB_DRIVER", "sqlite"))),
		DBHost:          getEnv(prefix+"DB_HOST", getEnv("DB_HOST", "localhost")),
		DBUser:          getEnv(prefix+"DB_USER", getEnv("DB_USER", "root")),
		DBPassword:      getEnv(prefix+"DB_PASSWORD", getEnv("DB_PASSWORD", "")),
		DBName:          getEnv(prefix+"DB_NAME", getEnv("DB_NAME", "sentinel_lockup")),
		DBPort:          getEnv(prefix+"DB_PORT", getEnv("DB_PORT", "3306")),
		DBPath:          getEnv(prefix+"DB_PATH", getEnv("DB_PATH", "sentinel_lockup.db")),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", getEnv("DB_MIGRATION_MODE", "auto")),

		ServerPort:      getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),

		RedisHost:     getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "")),
		RedisPort:     getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MQTTBrokerURL:   getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "sentinel_lockup"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:         getEnvAsInt("MQTT_QOS", 1),
		MQTTRetained:    getEnvAsBool("MQTT_RETAINED", false),
		MQTTSSLEnabled:  getEnvAsBool("MQTT_SSL_ENABLED", false),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "sentinel"),

		JWTSecretKey: getEnv("JWT_SECRET_KEY", "sentinel-secret-key-change-in-production"),

		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),

		DefaultBuildingCode: getEnv("DEFAULT_BUILDING_CODE", "MAIN"),
		DefaultBuildingName: getEnv("DEFAULT_BUILDING_NAME", "Unit Building"),

		CollaboratorTimeout: getEnvAsDuration("LOCKUP_COLLABORATOR_TIMEOUT", 5*time.Second),
		BuildingLockTTL:     getEnvAsDuration("LOCKUP_BUILDING_LOCK_TTL", 30*time.Second),
		BuildingLockWait:    getEnvAsDuration("LOCKUP_BUILDING_LOCK_WAIT", 10*time.Second),

		JobsEnabled:        getEnvAsBool("LOCKUP_JOBS_ENABLED", true),
		JobsTimezone:       getEnv("LOCKUP_JOBS_TIMEZONE", ""),
		LockupWarningTime:  getEnv("LOCKUP_WARNING_TIME", "22:00"),
		LockupCriticalTime: getEnv("LOCKUP_CRITICAL_TIME", "23:00"),
		DayRolloverTime:    getEnv("DAY_ROLLOVER_TIME", "03:00"),

		ScanRateLimit: getEnvAsFloat("SCAN_RATE_LIMIT", 5),
		ScanRateBurst: getEnvAsInt("SCAN_RATE_BURST", 10),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the MySQL connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// RedisEnabled reports whether a Redis host was configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings such as "5s" or "250ms"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
