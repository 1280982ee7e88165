// internal/workers/chatbot/answer-vehicle-query/config.go
package answervehiclequery

import (
	"time"

	"vahan-chatbot/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig derives the handler timeout from the worker's job timeout.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
