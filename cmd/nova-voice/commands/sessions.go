package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/mcr5fh/nova-voice/cmd/nova-voice/internal/config"
	"github.com/mcr5fh/nova-voice/pkg/kv"
	"github.com/mcr5fh/nova-voice/pkg/session"
)

var (
	flagSessionsDataDir string
	flagOutput          string
	flagQuery           string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage stored sessions",
	Long: `Inspect and manage sessions in the badger store.

These commands open the data directory directly, so stop the server
first (badger allows one process at a time).

Examples:
  nova-voice sessions list --data-dir ./data
  nova-voice sessions get 2f9d... -o json
  nova-voice sessions get 2f9d... --query '.dimensions | keys'
  nova-voice sessions delete 2f9d...`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup, err := openSessions()
		if err != nil {
			return err
		}
		defer cleanup()

		sessions, err := mgr.List(cmd.Context())
		if err != nil {
			return err
		}
		return emit(sessions)
	},
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup, err := openSessions()
		if err != nil {
			return err
		}
		defer cleanup()

		sess, err := mgr.Get(cmd.Context(), args[0])
		if errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("session %s not found", args[0])
		}
		if err != nil {
			return err
		}
		return emit(sess)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup, err := openSessions()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := mgr.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	sessionsCmd.PersistentFlags().StringVar(&flagSessionsDataDir, "data-dir", "", "badger data directory (defaults to the config file's data_dir)")
	sessionsCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "yaml", "output format: yaml or json")
	sessionsCmd.PersistentFlags().StringVar(&flagQuery, "query", "", "jq filter applied to the output")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsGetCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openSessions() (*session.Manager, func(), error) {
	dir := flagSessionsDataDir
	if dir == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		dir = cfg.DataDir
	}
	if dir == "" {
		return nil, nil, fmt.Errorf("--data-dir is required")
	}
	store, err := kv.OpenBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dir, err)
	}
	cleanup := func() { store.Close() }
	return session.NewManager(session.NewStore(store)), cleanup, nil
}

// emit prints v in the selected output format, optionally filtered
// through a jq expression. The jq filter sees the JSON form of v.
func emit(v any) error {
	var plain any
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}

	values := []any{plain}
	if flagQuery != "" {
		query, err := gojq.Parse(flagQuery)
		if err != nil {
			return fmt.Errorf("parse query: %w", err)
		}
		values = values[:0]
		iter := query.Run(plain)
		for {
			out, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := out.(error); ok {
				return fmt.Errorf("run query: %w", err)
			}
			values = append(values, out)
		}
	}

	for _, val := range values {
		switch flagOutput {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(val); err != nil {
				return err
			}
		case "yaml":
			out, err := yaml.Marshal(val)
			if err != nil {
				return err
			}
			os.Stdout.Write(out)
		default:
			return fmt.Errorf("unknown output format %q", flagOutput)
		}
	}
	return nil
}
