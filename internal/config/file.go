package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type yamlConfig struct {
	Grading struct {
		CaseSensitiveMatching *bool `yaml:"case_sensitive_matching"`
		CaseSensitiveMistake  *bool `yaml:"case_sensitive_mistake"`
	} `yaml:"grading"`
	Sessions struct {
		Driver string `yaml:"driver"`
		TTL    string `yaml:"ttl"`
	} `yaml:"sessions"`
	Credentials []Credential `yaml:"credentials"`
}

// Load reads the environment, then applies the YAML file named by CONFIG_FILE if set.
func Load() (Config, error) {
	c := FromEnv()
	if c.ConfigFile == "" {
		return c, nil
	}
	b, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	if err := c.applyYAML(b); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", c.ConfigFile, err)
	}
	return c, nil
}

func (c *Config) applyYAML(b []byte) error {
	var y yamlConfig
	if err := yaml.Unmarshal(b, &y); err != nil {
		return err
	}
	if y.Grading.CaseSensitiveMatching != nil {
		c.GradingCaseSensitiveMatching = *y.Grading.CaseSensitiveMatching
	}
	if y.Grading.CaseSensitiveMistake != nil {
		c.GradingCaseSensitiveMistake = *y.Grading.CaseSensitiveMistake
	}
	if y.Sessions.Driver != "" {
		c.SessionDriver = y.Sessions.Driver
	}
	if y.Sessions.TTL != "" {
		d, err := time.ParseDuration(y.Sessions.TTL)
		if err != nil {
			return fmt.Errorf("sessions.ttl: %w", err)
		}
		c.SessionTTL = d
	}
	for i, cr := range y.Credentials {
		if cr.Username == "" || cr.PasswordHash == "" {
			return fmt.Errorf("credentials[%d]: username and password_hash are required", i)
		}
		if cr.Role == "" {
			cr.Role = "student"
		}
		c.Credentials = append(c.Credentials, cr)
	}
	return nil
}
