package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 15 * time.Minute

// Default rate limiting
const DefaultRateLimitPerMin = 60

// Upload limits. MaxUploadFileSize is the hard cap enforced before any
// parsing; MaxRequestBodySize leaves headroom for the multipart envelope.
const (
	MaxUploadFileSize  = 10 << 20
	MaxRequestBodySize = 12 << 20
)

// Rows included in the upload preview response.
const PreviewRowCount = 20
