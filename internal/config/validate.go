package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateService() error {
	parsed, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("service.base_url must use http or https, got %q", c.Service.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("service.base_url must include a host, got %q", c.Service.BaseURL)
	}
	if c.Service.RequestTimeout <= 0 {
		return errors.New("service.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.IntervalMillis < minPollIntervalMillis {
		return fmt.Errorf("polling.interval_ms must be at least %d", minPollIntervalMillis)
	}
	if c.Polling.ResultRetries < 0 {
		return errors.New("polling.result_retries must not be negative")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxSizeMB <= 0 {
		return errors.New("upload.max_size_mb must be positive")
	}
	if c.Upload.MaxSizeMB > maxUploadSizeMBCeiling {
		return fmt.Errorf("upload.max_size_mb must not exceed %d", maxUploadSizeMBCeiling)
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return errors.New("upload.allowed_types must list at least one MIME type")
	}
	for _, value := range c.Upload.AllowedTypes {
		if !strings.HasPrefix(value, "image/") {
			return fmt.Errorf("upload.allowed_types: %q is not an image type", value)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateStages() error {
	if len(c.Stages) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(c.Stages))
	orders := make(map[int]string, len(c.Stages))
	for _, stage := range c.Stages {
		if stage.ID == "" {
			return errors.New("stages: every stage needs an id")
		}
		if _, dup := ids[stage.ID]; dup {
			return fmt.Errorf("stages: duplicate id %q", stage.ID)
		}
		ids[stage.ID] = struct{}{}
		if other, dup := orders[stage.Order]; dup {
			return fmt.Errorf("stages: %q and %q share order %d", other, stage.ID, stage.Order)
		}
		orders[stage.Order] = stage.ID
	}
	return nil
}
