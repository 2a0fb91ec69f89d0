package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/statesynth/mealycache/cmd/util"
	"github.com/statesynth/mealycache/pkg/logger"
)

const traces = `
alphabet: [a, b, c]
traces:
  - input: [a, a]
    output: ["0", "1"]
  - input: [a, b, a]
    output: ["0", err, err]
  - input: [b]
    output: ["1"]
`

func writeTraces(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traces.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func storeArgs(engine, uri string) []string {
	return []string{"--store-engine", engine, "--store-uri", uri, "--log-level", "none"}
}

func TestSeedQueryInspectList(t *testing.T) {
	util.PrepareTempConfigDir(t)

	engines := map[string]func(t *testing.T) string{
		"file":   func(t *testing.T) string { return t.TempDir() },
		"sqlite": func(t *testing.T) string { return filepath.Join(t.TempDir(), "snapshots.db") },
	}

	for engine, uri := range engines {
		t.Run(engine, func(t *testing.T) {
			store := storeArgs(engine, uri(t))
			path := writeTraces(t, traces)

			out, err := execute(t, append([]string{"seed", "--traces", path, "--name", "run", "--sink", "err=err"}, store...)...)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(out, "run "), out)

			out, err = execute(t, append([]string{"query", "--name", "run", "--sink", "err=err"}, append(store, "a,a", "a", "a,b,b,c", "c", "")...)...)
			require.NoError(t, err)
			require.Equal(t, strings.Join([]string{
				"a,a -> 0,1",
				"a -> 0",
				"a,b,b,c -> 0,err,err,err",
				"c -> ?",
				" -> ",
			}, "\n")+"\n", out)

			// without the filter nothing past the error symbol is known
			out, err = execute(t, append([]string{"query", "--name", "run"}, append(store, "a,b,a")...)...)
			require.NoError(t, err)
			require.Equal(t, "a,b,a -> ?\n", out)

			out, err = execute(t, append([]string{"inspect", "--name", "run", "--words"}, store...)...)
			require.NoError(t, err)
			require.Contains(t, out, "format    tree")
			require.Contains(t, out, "alphabet  a,b,c")
			require.Contains(t, out, "states    5")
			require.Contains(t, out, "a,b       0,err")

			out, err = execute(t, append([]string{"list"}, store...)...)
			require.NoError(t, err)
			require.Equal(t, "run\n", out)
		})
	}
}

func TestSeedTableFormat(t *testing.T) {
	util.PrepareTempConfigDir(t)
	store := storeArgs("memory", "")

	_, err := execute(t, append([]string{"seed", "--traces", writeTraces(t, traces), "--name", "table-run", "--format", "table"}, store...)...)
	require.NoError(t, err)

	out, err := execute(t, append([]string{"inspect", "--name", "table-run"}, store...)...)
	require.NoError(t, err)
	require.Contains(t, out, "format    table")
	require.Contains(t, out, "states    6")
}

func TestSeedErrors(t *testing.T) {
	util.PrepareTempConfigDir(t)
	store := storeArgs("file", t.TempDir())

	tests := []struct {
		name string
		args []string
		err  string
	}{
		{name: "missing_name", args: []string{"--traces", writeTraces(t, traces)}, err: "missing snapshot name"},
		{name: "missing_traces", args: []string{"--name", "run"}, err: "missing traces file"},
		{name: "unknown_format", args: []string{"--name", "run", "--traces", writeTraces(t, traces), "--format", "dag"}, err: "dag"},
		{
			name: "length_mismatch",
			args: []string{"--name", "run", "--traces", writeTraces(t, "traces:\n  - input: [a]\n    output: []\n")},
			err:  "1 inputs but 0 outputs",
		},
		{
			name: "unknown_field",
			args: []string{"--name", "run", "--traces", writeTraces(t, "tracez: []\n")},
			err:  "parse traces",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, append(append([]string{"seed"}, test.args...), store...)...)
			require.ErrorContains(t, err, test.err)
		})
	}
}

func TestQueryUnknownSnapshot(t *testing.T) {
	util.PrepareTempConfigDir(t)

	_, err := execute(t, append([]string{"query", "--name", "missing"}, append(storeArgs("file", t.TempDir()), "a")...)...)
	require.ErrorContains(t, err, "not found")
}

func TestUnknownEngine(t *testing.T) {
	util.PrepareTempConfigDir(t)

	_, err := execute(t, append([]string{"list"}, storeArgs("etcd", "")...)...)
	require.ErrorContains(t, err, "unknown store engine type: etcd")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	util.PrepareTempConfigFile(t, "store:\n  engine: file\n  uri: "+dir+"\nlog:\n  level: none\n")

	_, err := execute(t, "seed", "--traces", writeTraces(t, traces), "--name", "from-config")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "from-config.yaml"))
}

func TestEnvironment(t *testing.T) {
	util.PrepareTempConfigDir(t)
	dir := t.TempDir()
	t.Setenv("MEALYCACHE_STORE_ENGINE", "file")
	t.Setenv("MEALYCACHE_STORE_URI", dir)
	t.Setenv("MEALYCACHE_LOG_LEVEL", "none")

	_, err := execute(t, "seed", "--traces", writeTraces(t, traces), "--name", "from-env")
	require.NoError(t, err)

	out, err := execute(t, "list")
	require.NoError(t, err)
	require.Equal(t, "from-env\n", out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "mealycache version dev"), out)
}

func TestSinkFilterFromConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	l, logs := logger.NewObserverLogger("debug")
	require.Nil(t, sinkFilter(l))
	require.Zero(t, logs.Len())

	viper.Set(sinkFlag, map[string]string{"err": "sink"})
	f := sinkFilter(l)
	require.NotNil(t, f)
	require.True(t, f.IsError("err"))

	entries := logs.FilterMessage("sink filter enabled").All()
	require.Len(t, entries, 1)
	require.Equal(t, map[string]string{"err": "sink"}, entries[0].ContextMap()["sinks"])
}
