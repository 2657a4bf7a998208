// Package cli implements settlectl, the operator tool that runs the
// settlement engine directly against a SQLite file.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/reconciler"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database    string
	Format      string // "text" | "json" | "yaml"
	Verbose     bool
	LockTimeout time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the settlectl root command. Defaults come from the
// same environment and .env file the server reads.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &RootOptions{LockTimeout: cfg.LockTimeout}

	cmd := &cobra.Command{
		Use:   "settlectl",
		Short: "Inspect and reconcile group settlements",
		Long: `settlectl runs the settlement engine against a settleup database.

Commands act as the owner of the group they touch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, true))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", cfg.DBPath, "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newRecomputeCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newBalancesCommand(opts))
	cmd.AddCommand(newSettleCommand(opts))
	cmd.AddCommand(newSettleAllCommand(opts))

	return cmd
}

// session is an open database with an engine over it.
type session struct {
	store  *sqlite.SQLiteStore
	engine *reconciler.Reconciler
}

func (o *RootOptions) open() (*session, error) {
	if _, err := os.Stat(o.Database); err != nil {
		return nil, fmt.Errorf("open database %s: %w", o.Database, err)
	}
	store, err := sqlite.New(o.Database)
	if err != nil {
		return nil, err
	}
	return &session{store: store, engine: reconciler.New(store, reconciler.Options{LockTimeout: o.LockTimeout})}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// owner returns the owner of the group, the identity every command acts as.
func (s *session) owner(ctx context.Context, groupID string) (string, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return "", fmt.Errorf("group %s: %w", groupID, err)
	}
	return group.OwnerID, nil
}

// names maps person IDs of the group to display names.
func (s *session) names(ctx context.Context, groupID, ownerID string) (map[string]string, error) {
	ledger, err := s.store.GetGroupLedger(ctx, groupID, ownerID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(ledger.People))
	for _, p := range ledger.People {
		names[p.ID] = p.Name
	}
	return names, nil
}
