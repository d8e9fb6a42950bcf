package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"onpointe/prevention/cmd/client/commands"
	"onpointe/prevention/internal/app"
	"onpointe/prevention/internal/backend"
	"onpointe/prevention/internal/config"
	"onpointe/prevention/internal/identity"
	"onpointe/prevention/internal/logging"
	"onpointe/prevention/internal/navigation"
	"onpointe/prevention/internal/realtime"
	"onpointe/prevention/internal/repository/mongo"
	"onpointe/prevention/internal/viewsync"
)

var (
	env        string
	configPath string
	host       string
	appCtx     = &commands.AppContext{Ctx: context.Background(), Out: os.Stdout}
	closeStore func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "onpointe",
		Short: "On Pointe - dancer check-ins and PT triage",
		Long:  `An interactive client for dancers logging daily check-ins and the physical therapists who triage them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeStore != nil {
				closeStore()
			}
			if appCtx.Logger != nil {
				_ = appCtx.Logger.Sync()
			}
		},
		// With no subcommand the client runs the interactive session.
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunInteractive(cmd, appCtx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "dev", "Environment (dev, prod, ...) selecting config.<env>.yaml")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "Directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Host the client runs on; local hosts use the emulator")

	commands.Register(rootCmd, appCtx)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up config, logger, identity, the RPC client and the store.
func initApp() error {
	cfg, err := config.LoadWithEnv(configPath, env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if host != "" {
		cfg.Backend.Host = host
	}

	logger, err := logging.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	appCtx.Logger = logger

	baseURL := backend.BaseURL(cfg.Backend)
	logger.Info("starting client", zap.String("environment", env), zap.String("backend", baseURL))

	httpClient := &http.Client{Timeout: cfg.Backend.Timeout}
	ids := identity.NewProvider(baseURL, httpClient, logger)
	rpc := backend.NewClient(baseURL, ids, httpClient, logger)

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	closeStore = func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Warn("failed to disconnect document store", zap.Error(err))
		}
	}
	db := dbClient.Database(cfg.Database.Name)
	store := mongo.NewClientStore(db)
	subs := realtime.NewManager(mongo.NewRealtimeSource(db, logger), logger)

	synchronizer := viewsync.New(rpc, store, subs, logger)
	appCtx.Session = app.New(ids, store, navigation.NewGuard(), synchronizer, logger)
	appCtx.Renderer = commands.NewRenderer(appCtx.Out)
	synchronizer.OnChange(func(v viewsync.View) {
		appCtx.Renderer.Render(appCtx.Session.State(), v)
	})

	logger.Debug("client initialized")
	return nil
}
