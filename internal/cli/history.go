package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/wikiserve/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history <path>",
		Short: "List the revisions of a path",
		Long:  "List the revisions of a stored path, such as docs/Guide.md, newest first.",
		Args:  cobra.ExactArgs(1),
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 50, "Max revisions")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	revs, err := s.History(cmd.Context(), store.HistoryParams{Path: args[0], Limit: limit})
	if err != nil {
		exitErr("history", err)
	}

	printOut(cmd, revs)
}
