package cli

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/render"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put <path> [content]",
		Short: "Write a page or file",
		Long: "Write content at a path as one commit. Content can be a positional arg or piped via stdin.\n" +
			"The path's extension decides the page format; other extensions are stored as raw files.",
		Args: cobra.RangeArgs(1, 2),
		Run:  runPut,
	}

	cmd.Flags().Bool("from-html", false, "Convert HTML input to a markdown page")
	commitFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	target := args[0]
	fromHTML, _ := cmd.Flags().GetBool("from-html")

	content, err := readContent(args[1:])
	if err != nil {
		exitErr("read stdin", err)
	}
	if strings.TrimSpace(content) == "" {
		exitErr("put", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	if fromHTML {
		content, err = render.HTMLToMarkdown(content)
		if err != nil {
			exitErr("convert html", err)
		}
		target = strings.TrimSuffix(target, path.Ext(target)) + model.FormatMarkdown.Ext()
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	version, err := s.WriteFile(cmd.Context(), target, []byte(content), commitMeta(cmd, "Update "+target))
	if err != nil {
		exitErr("put", err)
	}

	printOut(cmd, map[string]interface{}{"ok": true, "path": target, "version": version})
}
