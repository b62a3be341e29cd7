package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/provider"
	"github.com/professai/aitril/internal/state"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation history",
	Long: `List, inspect and clear recorded sessions.

Every tri-lam and coordination run records its prompt and responses; use
'sessions show <id>' to replay one.`,
	RunE: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the turns of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Delete a session and its turns",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsClear,
}

func init() {
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
}

func openHistory() (*state.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := historyDB(cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("history is disabled in config")
	}
	return db, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s  %s\n", s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Name)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	session, err := db.GetSession(args[0])
	if err != nil {
		return err
	}
	turns, err := db.Turns(session.ID)
	if err != nil {
		return err
	}

	banner(session.Name)
	for _, turn := range turns {
		headerColor.Printf("[%s] %s\n", turn.Strategy, turn.Prompt)
		for name, answer := range turn.Responses {
			section(provider.DisplayName(name))
			fmt.Println(answer)
		}
		fmt.Println()
	}
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ClearSession(args[0]); err != nil {
		return err
	}
	fmt.Printf("Session %s cleared.\n", args[0])
	return nil
}
