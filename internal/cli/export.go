package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/wikiserve/internal/archive"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full commit log",
		Long: "Export every commit, oldest first, with the content it wrote. The encoding follows --format\n" +
			"(json or yaml) and can be compressed with --compress zstd or lz4.",
		Run: runExport,
	}

	cmd.Flags().String("compress", "none", "Compression: none, zstd or lz4")
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	compressName, _ := cmd.Flags().GetString("compress")
	output, _ := cmd.Flags().GetString("output")

	format, err := archive.ParseFormat(formatFlag)
	if err != nil {
		exitErr("export", err)
	}
	compression, err := archive.ParseCompression(compressName)
	if err != nil {
		exitErr("export", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	commits, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			exitErr("create output", err)
		}
		defer f.Close()
		w = f
	}

	if err := archive.Write(w, commits, format, compression); err != nil {
		exitErr("export", err)
	}
}
