package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string
	JWTSecret    string

	EnergyInflationRate float64
	EfficiencyLossRate  float64
	ReplacementYear     int
	ReplacementCostPct  float64
	DiscountRate        float64

	OutboxRelayBatchSize int
}

func Load() (Config, error) {
	// Local runs keep their settings in a .env file; absence is not an error.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "helios"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,
		JWTSecret:    os.Getenv("JWT_SECRET"),

		EnergyInflationRate: envFloat("ENERGY_INFLATION_RATE", 0.05),
		EfficiencyLossRate:  envFloat("EFFICIENCY_LOSS_RATE", 0.005),
		ReplacementYear:     envInt("REPLACEMENT_YEAR", 13),
		ReplacementCostPct:  envFloat("REPLACEMENT_COST_PCT", 0.15),
		DiscountRate:        envFloat("DISCOUNT_RATE", 0.08),

		OutboxRelayBatchSize: envInt("OUTBOX_RELAY_BATCH_SIZE", 100),
	}, nil
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
