package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/CZERTAINLY/devwatch/internal/log"
	"github.com/CZERTAINLY/devwatch/internal/model"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	userConfigPath string // /default/config/path/devwatch on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config
	project        model.Project

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "devwatch")
}

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load, overrides $DEVWATCHCONFIG - default is devwatch.yaml in current directory or in "+userConfigPath)
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse a config, setup logging
	rootCmd.PersistentPreRunE = initDevwatch

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("devwatch failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "devwatch",
	Short:        "Re-runs the entry file when it or a file it imports changes",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         doRun,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run command watches the entry file and restarts it on relevant changes",
	Args:  cobra.NoArgs,
	RunE:  doRun,
}

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "imports prints the auxiliary files the entry file imports",
	Args:  cobra.NoArgs,
	RunE:  doImports,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config prints the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(config); err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		return enc.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a devwatch",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		info, ok := debug.ReadBuildInfo()
		if !ok {
			_, _ = fmt.Fprintln(w, "devwatch: version info not available")
			return
		}

		if configPath != "" {
			_, _ = fmt.Fprintf(w, "config:   %s\n", configPath)
		}
		_, _ = fmt.Fprintf(w, "devwatch: %s\n", info.Main.Version)
		_, _ = fmt.Fprintf(w, "go:       %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				_, _ = fmt.Fprintf(w, "commit:   %s\n", s.Value)
			case "vcs.time":
				_, _ = fmt.Fprintf(w, "date:     %s\n", s.Value)
			case "vcs.modified":
				_, _ = fmt.Fprintf(w, "dirty:    %s\n", s.Value)
			}
		}
	},
}

func initDevwatch(cmd *cobra.Command, _ []string) error {
	if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else if envConfig, ok := os.LookupEnv("DEVWATCHCONFIG"); ok {
		configPath = envConfig
	} else {
		for _, d := range []string{".", userConfigPath} {
			path := filepath.Join(d, "devwatch.yaml")
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	// relative paths in the config are relative to its directory
	base := "."
	if configPath == "" {
		config = model.DefaultConfig()
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid configuration", d.Attr("detail"))
			}
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
		base = filepath.Dir(configPath)
	}

	// --verbose has a precedence over config file
	if flagVerbose {
		config.Verbose = true
	}

	// initialize logging
	slog.SetDefault(log.New(os.Stderr, config.Verbose, config.LogFormat))

	var err error
	project, err = config.Resolve(base)
	if err != nil {
		return fmt.Errorf("resolving config: %w", err)
	}

	slog.Debug("devwatch run", "configPath", configPath)
	slog.Debug("devwatch run", "config", config)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && info.Mode().IsRegular()
}
