package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ShopName              string
	GSTNumber             string
	DefaultGSTPercent     string
	LoyaltyThreshold      int
	ReportTTLSeconds      int
	AuthSecret            string
	AccessTokenTTLMinutes int
	ProductsCSVPath       string
	CustomersCSVPath      string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	reportTTL, err := strconv.Atoi(getEnv("REPORT_TTL_SECONDS", "300"))
	if err != nil || reportTTL < 1 {
		reportTTL = 300
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	loyaltyThreshold, err := strconv.Atoi(getEnv("LOYALTY_THRESHOLD", "100"))
	if err != nil || loyaltyThreshold < 1 {
		loyaltyThreshold = 100
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		ShopName:              getEnv("SHOP_NAME", "Serenia Ltd."),
		GSTNumber:             getEnv("GST_NUMBER", "29ABCDE1234F1Z5"),
		DefaultGSTPercent:     getEnv("DEFAULT_GST_PERCENT", "18"),
		LoyaltyThreshold:      loyaltyThreshold,
		ReportTTLSeconds:      reportTTL,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		ProductsCSVPath:       getEnv("PRODUCTS_CSV_PATH", "products.csv"),
		CustomersCSVPath:      getEnv("CUSTOMERS_CSV_PATH", "customers.csv"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
