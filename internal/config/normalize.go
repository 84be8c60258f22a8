package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeService()
	c.normalizeSubmission()
	c.normalizeLocalRender()
	if c.Alerts.TransientSeconds <= 0 {
		c.Alerts.TransientSeconds = defaultTransientSeconds
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ConfigDir) == "" {
		c.Paths.ConfigDir = defaultConfigDir
	}
	if c.Paths.ConfigDir, err = expandPath(c.Paths.ConfigDir); err != nil {
		return fmt.Errorf("paths.config_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AutosaveDir) == "" {
		c.Paths.AutosaveDir = defaultAutosaveDir
	}
	if c.Paths.AutosaveDir, err = expandPath(c.Paths.AutosaveDir); err != nil {
		return fmt.Errorf("paths.autosave_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeService() {
	if value, ok := os.LookupEnv(hostEnvVar); ok && strings.TrimSpace(value) != "" {
		c.Service.Host = value
	}
	c.Service.Host = strings.TrimRight(strings.TrimSpace(c.Service.Host), "/")
	c.Service.DevHost = strings.TrimRight(strings.TrimSpace(c.Service.DevHost), "/")
	c.Service.SecurePath = normalizeEndpointPath(c.Service.SecurePath, defaultSecurePath)
	c.Service.GeneralPath = normalizeEndpointPath(c.Service.GeneralPath, defaultGeneralPath)
	c.Service.UploadPath = normalizeEndpointPath(c.Service.UploadPath, defaultUploadPath)
	if c.Service.RequestTimeout <= 0 {
		c.Service.RequestTimeout = defaultRequestTimeout
	}
}

func normalizeEndpointPath(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return value
}

func (c *Config) normalizeSubmission() {
	c.Submission.Renderer = strings.ToLower(strings.TrimSpace(c.Submission.Renderer))
	if c.Submission.Renderer == "" {
		c.Submission.Renderer = defaultRenderer
	}
	c.Submission.OutputLicense = strings.ToLower(strings.TrimSpace(c.Submission.OutputLicense))
	if c.Submission.OutputLicense == "" {
		c.Submission.OutputLicense = defaultOutputLicense
	}
	c.Submission.InputLicense = strings.ToLower(strings.TrimSpace(c.Submission.InputLicense))
	if c.Submission.InputLicense == "" {
		c.Submission.InputLicense = defaultInputLicense
	}
	if c.Submission.Parts <= 0 {
		c.Submission.Parts = defaultParts
	}
	if c.Submission.SubSamples <= 0 {
		c.Submission.SubSamples = defaultSubSamples
	}
}

func (c *Config) normalizeLocalRender() {
	c.LocalRender.Command = strings.TrimSpace(c.LocalRender.Command)
	if c.LocalRender.Frame <= 0 {
		c.LocalRender.Frame = defaultLocalRenderFrame
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
