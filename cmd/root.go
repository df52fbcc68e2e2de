package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nftlend/config"

	"github.com/fox-one/pkg/logger"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultConfigName = ".nftlend.yaml"

var (
	cfgFile   string
	cfg       config.Config
	debugMode bool
	logFormat string
	rootLog   = logrus.NewEntry(logrus.StandardLogger())
)

var rootCmd = cobra.Command{
	Use:           "nftlend",
	Short:         "lending pool with fungible and nft collateral",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}

		file, err := configFile()
		if err != nil {
			return err
		}

		if err := config.Load(file, &cfg); err != nil {
			return fmt.Errorf("load config %q: %w", file, err)
		}

		rootLog = logrus.WithField("version", cmd.Root().Version)
		if file != "" {
			rootLog = rootLog.WithField("config", file)
		}

		rootLog.Debugf("%d assets, %d auctions configured", len(cfg.Assets), len(cfg.Auctions))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file. default is ~/"+defaultConfigName)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format, text or json")
}

// Execute runs the root command, called once by main.main
func Execute(ver string) {
	rootCmd.Version = ver
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext ctx of cmd carrying the root logger tagged with name
func commandContext(cmd *cobra.Command, name string) context.Context {
	return logger.WithContext(cmd.Context(), rootLog.WithField("cmd", name))
}

// configFile --config, or ~/.nftlend.yaml when it exists
func configFile() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}

	dir, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	filename := filepath.Join(dir, defaultConfigName)
	if info, err := os.Stat(filename); err == nil && !info.IsDir() {
		return filename, nil
	}

	return "", nil
}

func setupLogging() error {
	level := logrus.InfoLevel
	if debugMode {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	switch logFormat {
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}

	return nil
}
