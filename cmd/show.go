package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-metrics/internal/storage"
)

var showMinPoss int

var showCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Show stored ratings and rim defense for a game",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showMinPoss, "min-poss", 0, "hide units below this possession count")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	return showStoredGame(db, args[0], showMinPoss)
}
