// Package cli implements the wikiserve CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/wikiserve/internal/config"
	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/store"
)

var (
	cfgFile    string
	formatFlag string
	v          = viper.New()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "wikiserve",
	Short: "A versioned wiki server",
	Long:  "Serve and manage a versioned wiki. Pages live in a SQLite commit log; every edit is a commit.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./wikiserve.yaml or ~/.wikiserve/wikiserve.yaml)")
	RootCmd.PersistentFlags().StringP("db", "d", "", "Database path (default: $WIKISERVE_DB or ~/.wikiserve/wiki.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or yaml")
	v.BindPFlag("db", RootCmd.PersistentFlags().Lookup("db"))
}

func loadConfig() (*config.Config, error) {
	return config.Load(v, cfgFile)
}

func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.DBPath)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// printOut writes v to the command's stdout in the selected format.
func printOut(cmd *cobra.Command, v interface{}) {
	out := cmd.OutOrStdout()
	switch formatFlag {
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			exitErr("encode", err)
		}
		enc.Close()
	default:
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(out, string(b))
	}
}

// readContent returns the positional content, else whatever is piped on
// stdin.
func readContent(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// commitFlags adds the flags every writing command takes.
func commitFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("message", "m", "", "Commit message")
	cmd.Flags().String("author", os.Getenv("USER"), "Author name")
	cmd.Flags().String("email", "", "Author email")
}

func commitMeta(cmd *cobra.Command, fallback string) model.CommitMeta {
	msg, _ := cmd.Flags().GetString("message")
	name, _ := cmd.Flags().GetString("author")
	email, _ := cmd.Flags().GetString("email")
	if msg == "" {
		msg = fallback
	}
	return model.CommitMeta{Message: msg, Author: model.Author{Name: name, Email: email}}
}
