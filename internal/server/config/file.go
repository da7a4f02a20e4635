package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/timereport/internal/flagx"
	"github.com/dmitrijs2005/timereport/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk representation, decoded from JSON or YAML.
// Pointer-free zero values mean "keep the current value".
type FileConfig struct {
	Env                          string         `json:"env" yaml:"env"`
	HTTPAddr                     string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr                     string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDriver               string         `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	DataDir                      string         `json:"data_dir" yaml:"data_dir"`
	AccessTokenSecret            string         `json:"access_token_secret" yaml:"access_token_secret"`
	RefreshTokenSecret           string         `json:"refresh_token_secret" yaml:"refresh_token_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	StoreProvisionTimeout        timex.Duration `json:"store_provision_timeout" yaml:"store_provision_timeout"`
	SessionCleanupInterval       timex.Duration `json:"session_cleanup_interval" yaml:"session_cleanup_interval"`
	LogBackend                   string         `json:"log_backend" yaml:"log_backend"`
	FrontendURL                  string         `json:"frontend_url" yaml:"frontend_url"`
	SMTPHost                     string         `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort                     int            `json:"smtp_port" yaml:"smtp_port"`
	SMTPUsername                 string         `json:"smtp_username" yaml:"smtp_username"`
	SMTPPassword                 string         `json:"smtp_password" yaml:"smtp_password"`
	EmailFrom                    string         `json:"email_from" yaml:"email_from"`
	RedisAddr                    string         `json:"redis_addr" yaml:"redis_addr"`
	OTPRequestLimit              int            `json:"otp_request_limit" yaml:"otp_request_limit"`
	OTPRequestWindow             timex.Duration `json:"otp_request_window" yaml:"otp_request_window"`
	S3AccessKey                  string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey                  string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket                     string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile overlays values from the file named by -c/-config, if any.
// The format is chosen by extension: .yaml/.yml for YAML, JSON otherwise.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.Env, fc.Env)
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.GRPCAddr, fc.GRPCAddr)
	setString(&cfg.DatabaseDriver, fc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.AccessTokenSecret, fc.AccessTokenSecret)
	setString(&cfg.RefreshTokenSecret, fc.RefreshTokenSecret)
	setDuration(&cfg.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)
	setDuration(&cfg.RefreshTokenValidityDuration, fc.RefreshTokenValidityDuration)
	setDuration(&cfg.StoreProvisionTimeout, fc.StoreProvisionTimeout)
	setDuration(&cfg.SessionCleanupInterval, fc.SessionCleanupInterval)
	setString(&cfg.LogBackend, fc.LogBackend)
	setString(&cfg.FrontendURL, fc.FrontendURL)
	setString(&cfg.SMTPHost, fc.SMTPHost)
	setInt(&cfg.SMTPPort, fc.SMTPPort)
	setString(&cfg.SMTPUsername, fc.SMTPUsername)
	setString(&cfg.SMTPPassword, fc.SMTPPassword)
	setString(&cfg.EmailFrom, fc.EmailFrom)
	setString(&cfg.RedisAddr, fc.RedisAddr)
	setInt(&cfg.OTPRequestLimit, fc.OTPRequestLimit)
	setDuration(&cfg.OTPRequestWindow, fc.OTPRequestWindow)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
