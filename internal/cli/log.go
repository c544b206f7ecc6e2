package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "List commits across the whole wiki",
		Long:  "List commits newest first, with the paths each one touched.",
		Args:  cobra.NoArgs,
		Run:   runLog,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max commits, 0 for all")

	RootCmd.AddCommand(cmd)
}

func runLog(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	commits, err := s.Commits(cmd.Context(), limit)
	if err != nil {
		exitErr("log", err)
	}

	printOut(cmd, commits)
}
