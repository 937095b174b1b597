package config

import (
	"os"

	"homehub/integration/mqtt"
	"homehub/integration/ntfy"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MQTT mqtt.Config `yaml:"mqtt"`
	NTFY ntfy.Config `yaml:"ntfy"`

	Server struct {
		Address string `yaml:"address" envconfig:"SERVER_ADDRESS"`
	} `yaml:"server"`

	// Path of the devices file, rewritten on every registry change.
	Devices string `yaml:"devices" envconfig:"DEVICES_FILE"`

	Topics  Topics  `yaml:"topics"`
	Logging Logging `yaml:"logging"`
}

// Topics are the two well-known bus topics: Input carries registration and
// action messages towards the hub, Output carries results, forwarded
// requests and availability events away from it.
type Topics struct {
	Input  string `yaml:"input" envconfig:"TOPIC_INPUT"`
	Output string `yaml:"output" envconfig:"TOPIC_OUTPUT"`
}

type Logging struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

func Get() Config {
	// First load the config from the yaml file
	f, err := os.Open("config.yml")
	if err != nil {
		logrus.Fatalln("Failed to open config file", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(&cfg)
	if err != nil {
		logrus.Fatalln("Failed to parse config file", err)
	}

	// Then load values from environment
	// This can be used to either override the config or pass in secrets
	err = envconfig.Process("", &cfg)
	if err != nil {
		logrus.Fatalln("Failed to parse environment config", err)
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8090"
	}
	if cfg.Devices == "" {
		cfg.Devices = "config/devices.json"
	}
	if cfg.Topics.Input == "" {
		cfg.Topics.Input = "home/hub/input"
	}
	if cfg.Topics.Output == "" {
		cfg.Topics.Output = "home/hub/output"
	}

	return cfg
}
