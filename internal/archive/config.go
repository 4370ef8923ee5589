package archive

import "github.com/gogotex/contentstore/internal/config"

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// FromConfig extracts the MinIO section. ok is false when no endpoint is set,
// in which case snapshots are disabled.
func FromConfig(cfg *config.Config) (mc *MinIOConfig, ok bool) {
	if cfg == nil || cfg.MinIO.Endpoint == "" {
		return nil, false
	}
	bucket := cfg.MinIO.Bucket
	if bucket == "" {
		bucket = "content-snapshots"
	}
	return &MinIOConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		UseSSL:    cfg.MinIO.UseSSL,
		Bucket:    bucket,
	}, true
}
