package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/store"
)

type pageSummary struct {
	Name      string       `json:"name" yaml:"name"`
	Dir       string       `json:"dir,omitempty" yaml:"dir,omitempty"`
	Path      string       `json:"path" yaml:"path"`
	Format    model.Format `json:"format" yaml:"format"`
	Version   string       `json:"version" yaml:"version"`
	UpdatedAt time.Time    `json:"updated_at" yaml:"updated_at"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List pages",
		Run:   runLs,
	}

	cmd.Flags().String("dir", "", "Only list pages in this directory")
	cmd.Flags().StringP("version", "v", "", "Commit id to list at (default: latest)")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 for all)")

	RootCmd.AddCommand(cmd)
}

func runLs(cmd *cobra.Command, args []string) {
	dir, _ := cmd.Flags().GetString("dir")
	version, _ := cmd.Flags().GetString("version")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	pages, err := s.ListPages(cmd.Context(), store.ListParams{Dir: dir, Version: version, Limit: limit})
	if err != nil {
		exitErr("ls", err)
	}

	out := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageSummary{
			Name:      p.Name,
			Dir:       p.Dir,
			Path:      p.Path,
			Format:    p.Format,
			Version:   p.Version,
			UpdatedAt: p.UpdatedAt,
		})
	}
	printOut(cmd, out)
}
