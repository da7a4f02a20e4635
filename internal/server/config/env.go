package config

import (
	"os"
	"strconv"
	"time"
)

// envLookup is a seam for os.LookupEnv.
var envLookup = os.LookupEnv

// parseEnv overlays values from environment variables. JWT_SECRET,
// JWT_REFRESH_SECRET and DATABASE_DIR are honored for deployments that
// predate the TIMEREPORT_ prefix; prefixed names win when both are set.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
			}
		}
	}
	num := func(dst *int, key string) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str(&cfg.Env, "TIMEREPORT_ENV")
	str(&cfg.HTTPAddr, "TIMEREPORT_HTTP_ADDR")
	str(&cfg.GRPCAddr, "TIMEREPORT_GRPC_ADDR")
	str(&cfg.DatabaseDriver, "TIMEREPORT_DATABASE_DRIVER")
	str(&cfg.DatabaseDSN, "TIMEREPORT_DATABASE_DSN")
	str(&cfg.DataDir, "DATABASE_DIR", "TIMEREPORT_DATA_DIR")
	str(&cfg.AccessTokenSecret, "JWT_SECRET", "TIMEREPORT_ACCESS_TOKEN_SECRET")
	str(&cfg.RefreshTokenSecret, "JWT_REFRESH_SECRET", "TIMEREPORT_REFRESH_TOKEN_SECRET")
	dur(&cfg.AccessTokenValidityDuration, "TIMEREPORT_ACCESS_TOKEN_VALIDITY")
	dur(&cfg.RefreshTokenValidityDuration, "TIMEREPORT_REFRESH_TOKEN_VALIDITY")
	dur(&cfg.StoreProvisionTimeout, "TIMEREPORT_STORE_PROVISION_TIMEOUT")
	str(&cfg.LogBackend, "TIMEREPORT_LOG_BACKEND")
	str(&cfg.FrontendURL, "FRONTEND_URL", "TIMEREPORT_FRONTEND_URL")
	str(&cfg.SMTPHost, "TIMEREPORT_SMTP_HOST")
	num(&cfg.SMTPPort, "TIMEREPORT_SMTP_PORT")
	str(&cfg.SMTPUsername, "TIMEREPORT_SMTP_USERNAME")
	str(&cfg.SMTPPassword, "TIMEREPORT_SMTP_PASSWORD")
	str(&cfg.EmailFrom, "EMAIL_FROM", "TIMEREPORT_EMAIL_FROM")
	str(&cfg.RedisAddr, "TIMEREPORT_REDIS_ADDR")
	num(&cfg.OTPRequestLimit, "TIMEREPORT_OTP_REQUEST_LIMIT")
	dur(&cfg.OTPRequestWindow, "TIMEREPORT_OTP_REQUEST_WINDOW")
	str(&cfg.S3AccessKey, "TIMEREPORT_S3_ACCESS_KEY")
	str(&cfg.S3SecretKey, "TIMEREPORT_S3_SECRET_KEY")
	str(&cfg.S3Bucket, "TIMEREPORT_S3_BUCKET")
	str(&cfg.S3Region, "TIMEREPORT_S3_REGION")
	str(&cfg.S3BaseEndpoint, "TIMEREPORT_S3_BASE_ENDPOINT")
}
