package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config/config.yaml"

func main() {
	logger := log.New(os.Stdout, "medremind ", log.LstdFlags)

	var configPath string
	root := &cobra.Command{
		Use:           "medremind",
		Short:         "Medication adherence assistant over a chat channel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML configuration (default $CONFIG_PATH or "+defaultConfigPath+")")

	root.AddCommand(
		newServeCommand(logger, &configPath),
		newMessageCommand(logger, &configPath),
	)

	if err := root.Execute(); err != nil {
		logger.Fatalf("%v", err)
	}
}

// resolveConfigPath prefers the flag, then CONFIG_PATH, then the local default.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return defaultConfigPath
}
