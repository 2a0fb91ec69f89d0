package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/statesynth/mealycache/cmd/util"
	"github.com/statesynth/mealycache/pkg/logger"
	"github.com/statesynth/mealycache/pkg/sink"
	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/storage/file"
	"github.com/statesynth/mealycache/pkg/storage/memory"
	"github.com/statesynth/mealycache/pkg/storage/sqlite"
	"github.com/statesynth/mealycache/pkg/storage/storagewrappers"
	"github.com/statesynth/mealycache/pkg/word"
)

const (
	nameFlag = "name"
	sinkFlag = "sink"
)

// the memory engine lives as long as the process, so commands run in one process share it
var memoryStore = sync.OnceValue(func() *memory.MemoryBackend {
	return memory.New()
})

func addSharedFlags(flags *pflag.FlagSet) {
	flags.String(storeEngineFlag, "file", "the snapshot store engine: 'memory', 'file' or 'sqlite'")
	flags.String(storeURIFlag, ".mealycache", "the directory for the 'file' engine or the database path for 'sqlite'")
	flags.String(logFormatFlag, "text", "the log format to output logs in: 'text' or 'json'")
	flags.String(logLevelFlag, "warn", "the log level: 'none', 'debug', 'info', 'warn' or 'error'")
}

func bindSharedFlags(flags *pflag.FlagSet) {
	util.MustBindPFlag(storeEngineFlag, flags.Lookup(storeEngineFlag))
	util.MustBindPFlag(storeURIFlag, flags.Lookup(storeURIFlag))
	util.MustBindPFlag(logFormatFlag, flags.Lookup(logFormatFlag))
	util.MustBindPFlag(logLevelFlag, flags.Lookup(logLevelFlag))
}

// bindFlags binds the shared flags and every named command flag to viper keys of the same name.
func bindFlags(names ...string) func(cmd *cobra.Command, _ []string) {
	return func(cmd *cobra.Command, _ []string) {
		flags := cmd.Flags()
		bindSharedFlags(flags)
		for _, name := range names {
			util.MustBindPFlag(name, flags.Lookup(name))
		}
	}
}

func newLogger() (logger.Logger, error) {
	return logger.NewLogger(viper.GetString(logFormatFlag), viper.GetString(logLevelFlag))
}

func openStore(ctx context.Context, l logger.Logger) (storage.SnapshotStore, error) {
	engine := viper.GetString(storeEngineFlag)
	uri := viper.GetString(storeURIFlag)

	var (
		store storage.SnapshotStore
		err   error
	)
	switch engine {
	case "memory":
		store = memoryStore()
	case "file":
		store, err = file.New(uri)
	case "sqlite":
		store, err = sqlite.New(ctx, uri, sqlite.NewConfig(sqlite.WithLogger(l)))
	case "":
		return nil, fmt.Errorf("missing store engine type")
	default:
		return nil, fmt.Errorf("unknown store engine type: %s", engine)
	}
	if err != nil {
		return nil, err
	}

	return storagewrappers.NewInstrumentedStore(store, engine), nil
}

// sinkFilter builds a filter from error=sink pairs. No pairs means no filter.
func sinkFilter(l logger.Logger) *sink.Filter[string] {
	f := sink.NewFilter(viper.GetStringMapString(sinkFlag))
	if f.Len() == 0 {
		return nil
	}
	l.Debug("sink filter enabled", zap.Any("sinks", f.Mapping()))
	return f
}

// parseWord reads a comma separated word. The empty string is the empty word.
func parseWord(s string) word.Word[string] {
	if s == "" {
		return word.Empty[string]()
	}
	return word.FromSlice(strings.Split(s, ","))
}

func formatWord(w word.Word[string]) string {
	return strings.Join(w.Symbols(), ",")
}
