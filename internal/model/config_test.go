package model_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CZERTAINLY/devwatch/internal/model"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yml := `
version: 0
entry: app/index.ts
auxiliary:
  dir: app/lib
  prefixes:
    - "./lib/"
    - "@lib/"
  extension: .mts
  ignore:
    - "**/fixtures/**"
command:
  path: node
  args: ["--import", "tsx"]
  env:
    NODE_ENV: development
debounce: 250ms
scanner: syntax
clear: false
log_format: json
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, "app/index.ts", cfg.Entry)
	require.Equal(t, "app/lib", cfg.Auxiliary.Dir)
	require.Equal(t, []string{"./lib/", "@lib/"}, cfg.Auxiliary.Prefixes)
	require.Equal(t, ".mts", cfg.Auxiliary.Extension)
	require.Equal(t, []string{"**/fixtures/**"}, cfg.Auxiliary.Ignore)
	require.Equal(t, "node", cfg.Command.Path)
	require.Equal(t, []string{"--import", "tsx"}, cfg.Command.Args)
	require.Equal(t, map[string]string{"NODE_ENV": "development"}, cfg.Command.Env)
	require.Equal(t, "250ms", cfg.Debounce)
	require.Equal(t, model.ScannerSyntax, cfg.Scanner)
	require.False(t, cfg.Clear)
	require.False(t, cfg.Verbose)
	require.Equal(t, model.LogFormatJSON, cfg.LogFormat)
}

func TestDefaultConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	require.Equal(t, 0, cfg.Version)
	require.Equal(t, "src/main.ts", cfg.Entry)
	require.Equal(t, "src/challenges", cfg.Auxiliary.Dir)
	require.Equal(t, []string{"./challenges/", "@challenges/"}, cfg.Auxiliary.Prefixes)
	require.Equal(t, ".ts", cfg.Auxiliary.Extension)
	require.Empty(t, cfg.Auxiliary.Ignore)
	require.Equal(t, "tsx", cfg.Command.Path)
	require.Empty(t, cfg.Command.Args)
	require.Equal(t, "100ms", cfg.Debounce)
	require.Equal(t, model.ScannerPattern, cfg.Scanner)
	require.True(t, cfg.Clear)
	require.Equal(t, model.LogFormatText, cfg.LogFormat)
}

func TestLoadConfig_Partial(t *testing.T) {
	cfg, err := model.LoadConfig(strings.NewReader("entry: main.ts\n"))
	require.NoError(t, err)
	require.Equal(t, "main.ts", cfg.Entry)
	require.Equal(t, "src/challenges", cfg.Auxiliary.Dir)
	require.Equal(t, "100ms", cfg.Debounce)
}

func TestLoadConfig_Fail(t *testing.T) {
	cases := []struct {
		scenario string
		given    string
		then     string
	}{
		{"unknown_field", "bogus: 1\n", "not allowed"},
		{"bad_scanner", "scanner: regexp\n", "scanner"},
		{"bad_version", "version: 1\n", "version"},
		{"empty_prefixes", "auxiliary:\n  prefixes: []\n", "prefixes"},
		{"bad_extension", "auxiliary:\n  extension: ts\n", "extension"},
		{"bad_debounce", "debounce: soon\n", "debounce"},
		{"empty_entry", "entry: \"\"\n", "entry"},
	}

	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			_, err := model.LoadConfig(strings.NewReader(tc.given))
			require.Error(t, err)
			require.ErrorContains(t, err, tc.then)

			details := model.CueErrDetails(err)
			require.NotEmpty(t, details)
			for _, d := range details {
				require.NotEmpty(t, d.Code)
				require.NotEmpty(t, d.Message)
			}
		})
	}
}

func TestCueErrDetails_UnknownField(t *testing.T) {
	_, err := model.LoadConfig(strings.NewReader("bogus: 1\n"))
	require.Error(t, err)
	details := model.CueErrDetails(err)
	require.Len(t, details, 1)
	require.Equal(t, "unknown_field", details[0].Code)
	require.Equal(t, "bogus", details[0].Path)
	require.Equal(t, "Field bogus is not allowed", details[0].Message)
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.Auxiliary.Ignore = []string{"**/*.spec.ts"}

	project, err := cfg.Resolve(base)
	require.NoError(t, err)
	require.Equal(t, base, project.Root)
	require.Equal(t, filepath.Join(base, "src", "main.ts"), project.Entry)
	require.Equal(t, filepath.Join(base, "src", "challenges"), project.AuxDir)
	require.Equal(t, 100*time.Millisecond, project.Debounce)
	require.Equal(t, []string{"**/*.spec.ts"}, project.Ignore)
	require.Equal(t, "src/challenges/foo.ts", project.Rel(filepath.Join(base, "src", "challenges", "foo.ts")))
	require.Equal(t, "/elsewhere/foo.ts", project.Rel("/elsewhere/foo.ts"))

	t.Run("absolute paths are kept", func(t *testing.T) {
		cfg := model.DefaultConfig()
		cfg.Entry = filepath.Join(base, "x", "..", "main.ts")
		project, err := cfg.Resolve(t.TempDir())
		require.NoError(t, err)
		require.Equal(t, filepath.Join(base, "main.ts"), project.Entry)
	})

	t.Run("invalid ignore pattern", func(t *testing.T) {
		cfg := model.DefaultConfig()
		cfg.Auxiliary.Ignore = []string{"[unclosed"}
		_, err := cfg.Resolve(base)
		require.ErrorContains(t, err, "auxiliary.ignore")
	})
}

func TestProjectCheck(t *testing.T) {
	base := t.TempDir()
	project, err := model.DefaultConfig().Resolve(base)
	require.NoError(t, err)

	err = project.Check()
	require.Error(t, err)
	require.ErrorContains(t, err, "entry file")
	require.ErrorContains(t, err, "auxiliary directory")

	require.NoError(t, os.MkdirAll(project.AuxDir, 0o755))
	require.NoError(t, os.WriteFile(project.Entry, []byte("console.log(1)\n"), 0o644))
	require.NoError(t, project.Check())
}
