package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"serenia/backend/internal/cache"
	"serenia/backend/internal/config"
	"serenia/backend/internal/csvio"
	"serenia/backend/internal/httpapi"
	"serenia/backend/internal/service"
	"serenia/backend/internal/store"
	"serenia/backend/internal/store/memory"
	pgstore "serenia/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = loadMemoryStore(cfg)
		log.Println("repository: in-memory")
	}

	reports := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			reports = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("report cache: redis")
		}
	} else {
		log.Println("report cache: noop")
	}

	defaultTax, err := decimal.NewFromString(cfg.DefaultGSTPercent)
	if err != nil || defaultTax.IsNegative() {
		log.Printf("invalid DEFAULT_GST_PERCENT %q, using 18", cfg.DefaultGSTPercent)
		defaultTax = decimal.NewFromInt(18)
	}

	svc := service.New(repo, reports, service.Options{
		ShopName:          cfg.ShopName,
		GSTNumber:         cfg.GSTNumber,
		DefaultTaxPercent: defaultTax,
		LoyaltyThreshold:  cfg.LoyaltyThreshold,
		ReportTTL:         time.Duration(cfg.ReportTTLSeconds) * time.Second,
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("billing backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// loadMemoryStore seeds the in-memory repository from the configured CSV
// files, creating them with sample data when missing.
func loadMemoryStore(cfg config.Config) *memory.Store {
	products, productReport, err := csvio.LoadProductsFile(cfg.ProductsCSVPath)
	if err != nil {
		log.Fatalf("load products from %s: %v", cfg.ProductsCSVPath, err)
	}
	for _, skipped := range productReport.Skipped {
		log.Printf("products csv line %d skipped: %s", skipped.Line, skipped.Reason)
	}

	customers, customerReport, err := csvio.LoadCustomersFile(cfg.CustomersCSVPath)
	if err != nil {
		log.Fatalf("load customers from %s: %v", cfg.CustomersCSVPath, err)
	}
	for _, skipped := range customerReport.Skipped {
		log.Printf("customers csv line %d skipped: %s", skipped.Line, skipped.Reason)
	}

	return memory.NewWithData(products, customers)
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
