package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds the site-wide tunables that an administrator edits, as
// opposed to deployment secrets which come from the environment.
type Settings struct {
	PageRows           int    `yaml:"page_rows"`
	MemoSendPoint      int    `yaml:"memo_send_point"`
	RecaptchaSecretKey string `yaml:"recaptcha_secret_key"`
}

// LoadSettings reads a YAML settings file on top of the defaults. A missing
// file is not an error; the defaults are used as-is.
func LoadSettings(path string) (*Settings, error) {
	settings := &Settings{
		PageRows:      15,
		MemoSendPoint: 0,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: settings file %s not found, using defaults", path)
			return settings, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}

	if settings.PageRows < 1 {
		settings.PageRows = 15
	}
	if settings.MemoSendPoint < 0 {
		settings.MemoSendPoint = 0
	}

	return settings, nil
}
