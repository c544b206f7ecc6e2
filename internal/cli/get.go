package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/wikiserve/internal/store"
	"github.com/rcliao/wikiserve/internal/wiki"
	"github.com/rcliao/wikiserve/internal/wikipath"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <page>",
		Short: "Retrieve a page",
		Long:  "Retrieve a page by its URL path, such as docs/Getting-Started. Use --file for raw files.",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().StringP("version", "v", "", "Commit id to read at (default: latest)")
	cmd.Flags().Bool("raw", false, "Print only the page content")
	cmd.Flags().Bool("file", false, "Read a raw file by its full path")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	version, _ := cmd.Flags().GetString("version")
	raw, _ := cmd.Flags().GetBool("raw")
	file, _ := cmd.Flags().GetBool("file")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if file {
		f, err := s.ResolveFile(cmd.Context(), args[0], version)
		if err != nil {
			exitErr("get", err)
		}
		cmd.OutOrStdout().Write(f.RawData)
		return
	}

	loc := wikipath.Resolve(args[0])
	dir := loc.DirOr("")
	page, found, err := wiki.NewLocator(s).Locate(cmd.Context(), loc.Name, &dir, version, true)
	if err != nil {
		exitErr("get", err)
	}
	if !found {
		exitErr("get", fmt.Errorf("%s: %w", args[0], store.ErrNotFound))
	}

	if raw {
		fmt.Fprint(cmd.OutOrStdout(), page.RawData)
		return
	}
	printOut(cmd, page)
}
