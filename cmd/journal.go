package cmd

import (
	"fmt"

	"github.com/compozy/verbump/internal/domain"
	"github.com/compozy/verbump/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newJournalCmd creates the journal command
func newJournalCmd(opts *rootOptions) *cobra.Command {
	var journalDelete bool
	cmd := &cobra.Command{
		Use:   "journal [session-id]",
		Short: "Inspect a recorded bump session",
		Long: `Show a bump session recorded with "verbump version --journal".

Without a session id the most recent session is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := bindFlags(v, cmd.Flags(), map[string]string{"manifest": "manifest"}); err != nil {
				return err
			}
			c, err := newContainer(opts, v, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer c.close()
			state, err := c.loadSession(cmd, args)
			if err != nil {
				c.reporter.Error(err.Error())
				return &reportedError{err: err}
			}
			printSession(c.reporter, state)
			if journalDelete {
				if err := c.journalRepo.Delete(cmd.Context(), state.SessionID); err != nil {
					c.reporter.Error(err.Error())
					return &reportedError{err: err}
				}
				c.reporter.Info("Deleted session " + state.SessionID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&journalDelete, "delete", false, "Delete the session after showing it")
	return cmd
}

func (c *container) loadSession(cmd *cobra.Command, args []string) (*domain.RollbackState, error) {
	ctx := cmd.Context()
	if len(args) == 0 {
		return c.journalRepo.LoadLatest(ctx)
	}
	exists, err := c.journalRepo.Exists(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("session %s not found", args[0])
	}
	return c.journalRepo.Load(ctx, args[0])
}

func printSession(reporter service.Reporter, state *domain.RollbackState) {
	reporter.Info(fmt.Sprintf("Session %s: %s", state.SessionID, state.Status))
	reporter.Info(fmt.Sprintf("%s -> %s (%s)", state.PreviousVersion, state.Version, state.ManifestPath))
	for _, op := range state.Operations {
		line := fmt.Sprintf("  %s: %s", op.Type, op.Status)
		if op.Error != "" {
			line += " (" + op.Error + ")"
		}
		reporter.Info(line)
	}
	if state.Error != "" {
		reporter.Info("Error: " + state.Error)
	}
}
