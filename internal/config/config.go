package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/torfstack/jumble/internal/logging"
	"github.com/torfstack/jumble/internal/util"
)

var (
	configFilePath = filepath.Join(util.JumbleConfigDir, "config.toml")

	defaultOwner      = "a2x"
	defaultRepo       = "cs2-dumper"
	defaultPath       = "output"
	defaultOutputFile = "merged_output.json"
)

type Config struct {
	Owner      string `toml:"owner"`
	Repo       string `toml:"repo"`
	Path       string `toml:"path"`
	OutputFile string `toml:"output_file"`
	Token      string `toml:"token,omitempty"`
}

func Get() (Config, error) {
	return get(false)
}

func GetInteractive() (Config, error) {
	return get(true)
}

func get(interactive bool) (Config, error) {
	c := Config{}
	f, err := os.Open(configFilePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return initConfig(interactive)
	case err != nil:
		return c, fmt.Errorf("could not open config file for reading '%s': %s", configFilePath, err)
	}

	_, err = toml.NewDecoder(f).Decode(&c)
	if err != nil {
		return c, fmt.Errorf("could not decode config file '%s': %s", configFilePath, err)
	}
	return c, nil
}

func initConfig(interactive bool) (Config, error) {
	c := initialConfig()
	if interactive {
		err := guidedInitialization(&c)
		if err != nil {
			return c, fmt.Errorf("could not initialize config interactively: %w", err)
		}
	}
	return c, c.persist()
}

func (c *Config) persist() error {
	f, err := util.OpenWithParents(configFilePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open config file for writing '%s': %w", configFilePath, err)
	}

	logging.Debugf("Persisting config file to '%s'", configFilePath)
	err = toml.NewEncoder(f).Encode(c)
	if err != nil {
		return fmt.Errorf("could not persist config to file '%s': %w", configFilePath, err)
	}

	return nil
}

func initialConfig() Config {
	return Config{
		Owner:      defaultOwner,
		Repo:       defaultRepo,
		Path:       defaultPath,
		OutputFile: defaultOutputFile,
	}
}
