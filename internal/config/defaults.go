package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"database": map[string]interface{}{
			"path": "~/.plant-care/reminders.db",
		},
		"schedule": map[string]interface{}{
			"default_time": "morning", // morning, afternoon, evening or HH:MM
			"timezone":     "",        // empty means the system local zone
		},
		"scheduler": map[string]interface{}{
			"interval": 60,
			"telegram": map[string]interface{}{
				"bot_token": "",
				"chat_id":   "",
				"base_url":  "https://api.telegram.org",
			},
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "console",
			"file":   "",
		},
		"metrics": map[string]interface{}{
			"addr": "",
		},
		"ui": map[string]interface{}{
			"colored_output": true,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.plant-care/config.yaml"
}
