package config

const (
	defaultBaseURL              = "http://localhost:8000/api/v1"
	defaultRequestTimeout       = 30
	defaultUserAgent            = "docverify/0.1.0"
	defaultPollIntervalMillis   = 2000
	defaultResultRetries        = 2
	defaultMaxSizeMB            = 25
	defaultStateDir             = "~/.local/share/docverify"
	defaultDownloadDir          = "~/Downloads/docverify"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultNotifyRequestTimeout = 10
	minPollIntervalMillis       = 100
	maxUploadSizeMBCeiling      = 200
	defaultAllowedTypeJPEG      = "image/jpeg"
	defaultAllowedTypePNG       = "image/png"
	defaultAllowedTypeTIFF      = "image/tiff"
	defaultAllowedTypeBMP       = "image/bmp"
	envBaseURL                  = "DOCVERIFY_API_URL"
	envAPIToken                 = "DOCVERIFY_TOKEN"
	envNtfyTopic                = "DOCVERIFY_NTFY_TOPIC"
)

// DefaultAllowedTypes returns the MIME types accepted for upload.
func DefaultAllowedTypes() []string {
	return []string{defaultAllowedTypeJPEG, defaultAllowedTypePNG, defaultAllowedTypeTIFF, defaultAllowedTypeBMP}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Service: Service{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
			UserAgent:      defaultUserAgent,
		},
		Polling: Polling{
			IntervalMillis: defaultPollIntervalMillis,
			ResultRetries:  defaultResultRetries,
		},
		Upload: Upload{
			MaxSizeMB:    defaultMaxSizeMB,
			AllowedTypes: DefaultAllowedTypes(),
		},
		Paths: Paths{
			StateDir:    defaultStateDir,
			DownloadDir: defaultDownloadDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			JobCompleted:   true,
			Downloads:      false,
			Errors:         true,
		},
	}
}
