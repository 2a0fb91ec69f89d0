// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/statesynth/mealycache/internal/build"
)

const (
	storeEngineFlag = "store-engine"
	storeEngineConf = "store.engine"
	storeURIFlag    = "store-uri"
	storeURIConf    = "store.uri"
	logFormatFlag   = "log-format"
	logFormatConf   = "log.format"
	logLevelFlag    = "log-level"
	logLevelConf    = "log.level"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with MEALYCACHE, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("MEALYCACHE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/mealycache", "$HOME/.mealycache", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetDefault(storeEngineFlag, "file")
	viper.SetDefault(storeURIFlag, ".mealycache")
	viper.SetDefault(logFormatFlag, "text")
	viper.SetDefault(logLevelFlag, "warn")
	err := viper.ReadInConfig()
	if err == nil {
		for flag, conf := range map[string]string{
			storeEngineFlag: storeEngineConf,
			storeURIFlag:    storeURIConf,
			logFormatFlag:   logFormatConf,
			logLevelFlag:    logLevelConf,
		} {
			if viper.IsSet(conf) {
				viper.SetDefault(flag, viper.Get(conf))
			}
		}
	}

	root := &cobra.Command{
		Use:   build.ProjectName,
		Short: "Inspect and replay cached membership queries of Mealy machine learning runs",
		Long: `mealycache keeps the answers a system under test gave to membership queries in a prefix
tree, so that a learning run can be suspended and resumed without asking the system again.

The commands here seed snapshots from recorded traces, answer queries from a stored
snapshot and inspect what a snapshot knows.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		NewSeedCommand(),
		NewQueryCommand(),
		NewInspectCommand(),
		NewListCommand(),
		NewVersionCommand(),
	)

	return root
}
