package utils

import (
	"os"
	"strconv"
)

// GetEnv returns the environment value for key, or defaultValue when unset or empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(GetEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
