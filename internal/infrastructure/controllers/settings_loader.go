package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// loadSettings reads the file named by --config, or the first one found in
// the default locations, and applies its log level unless --verbose is set.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfgPath := configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = entities.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w (specify one with --config or create bulkimport.yaml)", err)
		}
	}

	logger.Infof("Using config file: %s", cfgPath)

	settings, err := entities.NewSettings(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	switch {
	case verbose:
		logger.SetLevel(logger.DebugLevel)
	case settings.LogLevel != "":
		level, parseErr := logger.ParseLevel(settings.LogLevel)
		if parseErr != nil {
			logger.Warnf("Ignoring unknown log level %q", settings.LogLevel)
			break
		}
		logger.SetLevel(level)
	}

	return settings, nil
}
