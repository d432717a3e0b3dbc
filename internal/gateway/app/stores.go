package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"focuslog/internal/gateway/config"
	"focuslog/internal/gateway/repository/ledger"
)

func initLedger(ctx context.Context, cfg *config.Config) (ledger.Store, io.Closer, error) {
	s3Factory := newLedgerS3StoreFactory(cfg)

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := ledger.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		log.Printf("ledger store: postgres")
		return ledger.NewPostgresStore(db), db, nil
	}
	store, err := chooseLedgerStore(cfg, ledger.NewMemoryStore(), "in-memory", s3Factory)
	return store, nil, err
}

func newLedgerS3StoreFactory(cfg *config.Config) func() (ledger.Store, error) {
	return func() (ledger.Store, error) {
		s3Cfg := ledgerS3Config(cfg)
		s3Store, err := ledger.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ledger s3 store: %w", err)
		}
		log.Printf("ledger store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
		return s3Store, nil
	}
}

func ledgerS3Config(cfg *config.Config) ledger.S3Config {
	return ledger.S3Config{
		Endpoint:  cfg.Ledger.Endpoint,
		Region:    cfg.Ledger.Region,
		AccessKey: cfg.Ledger.AccessKey,
		SecretKey: cfg.Ledger.SecretKey,
		Bucket:    cfg.Ledger.Bucket,
		UseSSL:    cfg.Ledger.UseSSL,
	}
}

func chooseLedgerStore(
	cfg *config.Config,
	fallback ledger.Store,
	fallbackLabel string,
	s3Factory func() (ledger.Store, error),
) (ledger.Store, error) {
	if cfg.Ledger.CanUseS3() {
		return s3Factory()
	}
	if cfg.Ledger.Enabled {
		log.Printf("ledger store: using %s fallback (s3 config incomplete)", fallbackLabel)
	}
	if fallback == nil {
		return nil, fmt.Errorf("ledger fallback store is nil")
	}
	return fallback, nil
}
