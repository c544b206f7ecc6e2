package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a page or file",
		Long:  "Delete a stored path as one commit. Earlier revisions stay readable by version.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	commitFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	version, err := s.DeletePath(cmd.Context(), args[0], commitMeta(cmd, "Delete "+args[0]))
	if err != nil {
		exitErr("rm", err)
	}

	printOut(cmd, map[string]interface{}{"ok": true, "path": args[0], "version": version})
}
