package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskseek/internal/agent"
	"taskseek/internal/browser"
	"taskseek/internal/config"
	"taskseek/internal/interaction"
	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/mcp"
	"taskseek/internal/prompt"
	"taskseek/internal/router"
	"taskseek/internal/session"
	"taskseek/internal/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "seek",
	Short: "taskseek - route natural language queries to specialist agents",
	Long: `taskseek classifies each query and dispatches it to the agent best suited
for it: conversation, coding, file operations, web research, planning, or
external protocol tools. Answers are parsed for notes, links, and follow-up
actions, and every cycle is persisted for later inspection.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd, askCmd, selfRunCmd, sessionsCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs once wiring is done.
type app struct {
	cfg      *config.Config
	provider llm.Provider
	prompts  *prompt.Store
	driver   *browser.Driver
	mcpCli   *mcp.Client
	router   *router.Router
	loop     *interaction.Loop
	store    *session.Store
}

// newApp loads config and wires the full agent stack. Optional pieces
// (browser, MCP, session store) degrade with a logged warning instead of
// failing startup.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	settings := logging.Settings{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}
	if err := logging.Initialize(".", settings); err != nil {
		logger.Warn("file logging unavailable", zap.Error(err))
	}
	logging.Boot("taskseek %s starting", cfg.Version)

	provider, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	prompts, err := prompt.NewStore(cfg.Prompts.Dir)
	if err != nil {
		return nil, err
	}
	if cfg.Prompts.HotReload {
		if err := prompts.Watch(); err != nil {
			logging.Prompt("Hot reload disabled: %v", err)
		}
	}

	registry := tools.DefaultRegistry(cfg.Execution)
	driver := browser.NewDriver(cfg.Browser)

	roster := []agent.Agent{
		agent.NewCasual(provider, prompts),
		agent.NewCoder(provider, prompts, registry),
		agent.NewFile(provider, prompts, registry),
		agent.NewBrowser(provider, prompts, driver, cfg.Browser.MaxSteps),
	}

	a := &app{cfg: cfg, provider: provider, prompts: prompts, driver: driver}

	if cfg.MCP.Enabled {
		client := mcp.NewClient(cfg.MCP.Command, cfg.MCP.Args, cfg.MCP.CallTimeout())
		if err := client.Connect(ctx); err != nil {
			logging.Boot("MCP server unavailable, continuing without it: %v", err)
		} else {
			a.mcpCli = client
			roster = append(roster, agent.NewMCP(provider, prompts, client))
		}
	}

	classifier, err := router.NewClassifier(cfg.Router.Strategy, provider, cfg.Router.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	r, err := router.New(roster, classifier, cfg.Router.Threshold)
	if err != nil {
		return nil, err
	}

	// The planner dispatches through the router, so it joins after the
	// router exists and gets a rebuilt roster including itself.
	planner := agent.NewPlanner(provider, prompts, r)
	r, err = router.New(append(roster, planner), classifier, cfg.Router.Threshold)
	if err != nil {
		return nil, err
	}
	a.router = r

	if cfg.Session.Save {
		store, err := session.Open(cfg.Session.DatabasePath)
		if err != nil {
			logging.SessionWarn("Session persistence disabled: %v", err)
		} else {
			a.store = store
		}
	}

	a.loop = interaction.New(a.router, a.store)
	return a, nil
}

// close releases every resource the app acquired.
func (a *app) close() {
	if a.driver != nil {
		_ = a.driver.Close()
	}
	if a.mcpCli != nil {
		_ = a.mcpCli.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.prompts != nil {
		_ = a.prompts.Close()
	}
	logging.CloseAll()
}
