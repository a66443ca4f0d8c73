package main

import (
	"context"
	"fmt"
	"strings"

	"taskseek/internal/config"
	"taskseek/internal/session"

	"github.com/spf13/cobra"
)

// runCmd is an explicit entry point for the interactive chat; the bare root
// command does the same.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

// askCmd runs a single query and prints the answer.
var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a single query and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

var selfRunCount int

// selfRunCmd generates synthetic queries and archives the results as
// training data.
var selfRunCmd = &cobra.Command{
	Use:   "selfrun",
	Short: "Generate synthetic queries and archive the results",
	Long: `Runs unattended: the provider generates realistic queries, each is routed
and answered as usual, and the session history is exported per agent and
copied into the training data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelfRun(cmd.Context(), selfRunCount)
	},
}

var sessionsLimit int

// sessionsCmd lists persisted interaction history.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show persisted interaction history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessions(cmd.Context(), sessionsLimit)
	},
}

func init() {
	selfRunCmd.Flags().IntVarP(&selfRunCount, "count", "n", 10, "number of synthetic queries to run")
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "number of records to show (0 for all)")
}

func runAsk(ctx context.Context, query string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cycle, err := a.loop.RunOnce(ctx, query)
	if err != nil {
		return err
	}

	fmt.Println(dimStyle.Render(fmt.Sprintf("[%s]", cycle.AgentName)))
	fmt.Println(cycle.Result.Answer)
	return nil
}

func runSelfRun(ctx context.Context, count int) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.store == nil {
		return fmt.Errorf("self-run requires session persistence (session.save: true)")
	}

	return a.loop.SelfRun(ctx, a.provider, count,
		a.cfg.Session.ConversationsDir, a.cfg.Session.TrainingDataDir)
}

// runSessions reads the store directly; no provider or agents are needed to
// list history.
func runSessions(ctx context.Context, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := session.Open(cfg.Session.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed"
		}
		fmt.Printf("%s  %-14s %-6s %s\n",
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.AgentName, status, truncateLine(rec.Query, 70))
	}
	return nil
}

func truncateLine(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
