package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/wikiserve/internal/archive"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a commit log",
		Long: "Import commits from stdin or a file. Expects the output of export; compression is\n" +
			"detected automatically and --format names the encoding.",
		Run: runImport,
	}

	cmd.Flags().StringP("input", "i", "", "Read from a file instead of stdin")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	input, _ := cmd.Flags().GetString("input")

	format, err := archive.ParseFormat(formatFlag)
	if err != nil {
		exitErr("import", err)
	}

	var r io.Reader = os.Stdin
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			exitErr("open input", err)
		}
		defer f.Close()
		r = f
	}

	commits, err := archive.Read(r, format)
	if err != nil {
		exitErr("import", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), commits)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
}
