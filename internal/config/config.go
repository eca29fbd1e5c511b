package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	// SQLite Configuration
	SQLitePath string
	// JWT Configuration
	JWTSecret string
	// Order lifecycle
	OrderTTL      time.Duration // how long an unpaid order holds its reservation
	SweepInterval time.Duration // how often the expiry sweeper runs
	// Seed data (optional CSV: name,price,stock)
	SeedPath string
	// Kafka Configuration
	KafkaBrokers     []string
	KafkaTopicOrders string
	KafkaTopicStock  string
	KafkaClientID    string
	KafkaAcks        string
	KafkaRetries     int
	UseKafka         bool
	// Redis Configuration (sweep lock)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	UseRedis      bool
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Parse Kafka brokers (comma-separated)
	kafkaBrokersStr := getEnv("KAFKA_BROKERS", "localhost:9093")
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")
	for i, broker := range kafkaBrokers {
		kafkaBrokers[i] = strings.TrimSpace(broker)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		SQLitePath:  getEnv("SQLITE_PATH", "./store.db"),
		// JWT Configuration
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production-min-32-chars"),
		// Order lifecycle
		OrderTTL:      getEnvAsDuration("ORDER_TTL", 15*time.Minute),
		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 30*time.Second),
		SeedPath:      getEnv("SEED_PATH", ""),
		// Kafka Configuration
		KafkaBrokers:     kafkaBrokers,
		KafkaTopicOrders: getEnv("KAFKA_TOPIC_ORDERS", "store.orders"),
		KafkaTopicStock:  getEnv("KAFKA_TOPIC_STOCK", "store.stock"),
		KafkaClientID:    getEnv("KAFKA_CLIENT_ID", "store-service"),
		KafkaAcks:        getEnv("KAFKA_ACKS", "all"),
		KafkaRetries:     getEnvAsInt("KAFKA_RETRIES", 3),
		UseKafka:         getEnvAsBool("USE_KAFKA", false),
		// Redis Configuration
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		UseRedis:      getEnvAsBool("USE_REDIS", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return result
}
