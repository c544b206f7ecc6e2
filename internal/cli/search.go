package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/wiki"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search pages by text",
		Long:  "Search the latest pages for matching lines. Results are ranked by match count.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := wiki.Search(cmd.Context(), s, query)
	if err != nil {
		exitErr("search", err)
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []model.SearchHit{}
	}

	printOut(cmd, results)
}
