package config

// localLedgerConfig lets the ledger reuse the MinIO root credentials.
func localLedgerConfig(env func(string) string) LedgerConfig {
	return LedgerConfig{
		Enabled:   true,
		Endpoint:  firstNonEmpty(env("LEDGER_S3_ENDPOINT"), env("LEDGER_MINIO_ENDPOINT")),
		Region:    firstNonEmpty(env("LEDGER_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(env("LEDGER_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(env("LEDGER_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(env("LEDGER_S3_BUCKET"), "focuslog-ledger"),
		UseSSL:    parseBoolDefault(env("LEDGER_S3_USE_SSL"), false),
	}
}
