package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validLicenses = map[string]struct{}{
	"cc-by":       {},
	"cc-by-sa":    {},
	"cc-by-nd":    {},
	"cc-by-nc":    {},
	"cc-by-nc-sa": {},
	"cc-by-nc-nd": {},
	"copyright":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateSubmission(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateService() error {
	if strings.TrimSpace(c.Service.Host) == "" {
		return fmt.Errorf("service.host must be set (or export %s)", hostEnvVar)
	}
	if err := validateHostURL("service.host", c.Service.Host); err != nil {
		return err
	}
	if c.Service.DevHost != "" {
		if err := validateHostURL("service.dev_host", c.Service.DevHost); err != nil {
			return err
		}
	}
	return nil
}

func validateHostURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host name, got %q", field, value)
	}
	return nil
}

func (c *Config) validateSubmission() error {
	switch c.Submission.Renderer {
	case "blender", "cycles":
	default:
		return fmt.Errorf("submission.renderer must be blender or cycles, got %q", c.Submission.Renderer)
	}
	if c.Submission.MemoryLimit < 0 {
		return errors.New("submission.memory_limit must be non-negative")
	}
	if c.Submission.Samples < 0 {
		return errors.New("submission.samples must be non-negative")
	}
	if _, ok := validLicenses[c.Submission.OutputLicense]; !ok {
		return fmt.Errorf("submission.output_license: unknown license %q", c.Submission.OutputLicense)
	}
	if _, ok := validLicenses[c.Submission.InputLicense]; !ok {
		return fmt.Errorf("submission.input_license: unknown license %q", c.Submission.InputLicense)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
