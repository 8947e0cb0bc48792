package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"cansig/publish"
	"cansig/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TxEntry schedules periodic transmission of one catalog message.
type TxEntry struct {
	Message string             `json:"message"`
	CycleMS int                `json:"cycle_ms"`
	Values  map[string]float64 `json:"values"`
}

type Config struct {
	Interface     string              `json:"interface"`
	Loopback      bool                `json:"loopback"` // in-memory bus; transmitted frames are received back
	CatalogPath   string              `json:"catalog"`
	QueueSize     int                 `json:"queue_size"`
	RecvTimeoutMS int                 `json:"recv_timeout_ms"`
	Log           utils.LogConfig     `json:"log"`
	MQTT          *publish.MQTTConfig `json:"mqtt,omitempty"`
	Tx            []TxEntry           `json:"tx"`
}

func DefaultConfig() Config {
	return Config{
		Interface:     "vcan0",
		QueueSize:     1024,
		RecvTimeoutMS: 1000,
		Log: utils.LogConfig{
			Level:  "info",
			Format: "text",
			Stdout: true,
		},
	}
}

// LoadConfig reads a JSON config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CatalogPath == "" {
		return errors.New("catalog path is required")
	}
	if c.Interface == "" && !c.Loopback {
		return errors.New("interface is required unless loopback is set")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("invalid queue_size: %d", c.QueueSize)
	}
	if c.RecvTimeoutMS <= 0 {
		return fmt.Errorf("invalid recv_timeout_ms: %d", c.RecvTimeoutMS)
	}
	if c.MQTT != nil && c.MQTT.Broker == "" {
		return errors.New("mqtt.broker is required when mqtt is configured")
	}
	for i, tx := range c.Tx {
		if tx.Message == "" {
			return fmt.Errorf("tx[%d]: message is required", i)
		}
		if tx.CycleMS <= 0 {
			return fmt.Errorf("tx[%d] %s: invalid cycle_ms %d", i, tx.Message, tx.CycleMS)
		}
	}
	return nil
}

func (c Config) RecvTimeout() time.Duration {
	return time.Duration(c.RecvTimeoutMS) * time.Millisecond
}
