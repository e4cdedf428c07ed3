package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clipdeck/clipdeck/internal/bridge"
	"github.com/clipdeck/clipdeck/internal/cli"
	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/infra/logger"
	"github.com/clipdeck/clipdeck/internal/infra/storage"
)

var (
	version = "dev"
)

var (
	debugFilePath string
	databasePath  string
)

var rootCmd = &cobra.Command{
	Use:   "clipdeck",
	Short: "Clipboard history manager for the terminal",
	Long: `Clipboard history manager for the terminal.
Run without arguments to browse the history, or use a subcommand to script it.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if first, err := config.IsFirstLaunch(); err == nil && first {
			a.cfg.Onboarded = true
			if err := a.cfg.Save(); err != nil {
				logger.Warn("Failed to save initial config", logger.Err(err))
			}
		}
		return cli.Start(a.bridge)
	},
}

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	store  *storage.Store
	bridge *bridge.Bridge
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if databasePath != "" {
		cfg.DatabasePath = databasePath
	}
	path, err := cfg.ResolveDatabasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened history", logger.String("path", path))

	return &app{
		cfg:    cfg,
		store:  store,
		bridge: bridge.New(store, cfg, nil, logger.L()),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close history", logger.Err(err))
	}
}

// collection returns the ID of the selected collection.
func (a *app) collection(ctx context.Context) (string, error) {
	c, err := a.store.SelectedCollection(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func init() {
	rootCmd.SetVersionTemplate("clipdeck {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&debugFilePath, "debug-file", "", "Path to debug log file (enables detailed logging)")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "Path to the history database")

	rootCmd.AddCommand(addCmd, captureCmd, listCmd, showCmd, copyCmd, deleteCmd,
		importCmd, exportCmd, invokeCmd, collectionsCmd, configCmd)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		initLogger()
	}
}

func main() {
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if debugFilePath != "" {
		logger.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogger() {
	if debugFilePath != "" {
		if err := logger.Init(true, debugFilePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		logger.Info("clipdeck starting", logger.String("log_file", debugFilePath), logger.String("version", version))
	}
}
