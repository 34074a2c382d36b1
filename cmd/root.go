package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/compozy/verbump/pkg/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	manifest   string
	configFile string
	verbose    bool
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "verbump",
		Short: "Bump the semantic version of a package manifest",
		Long: `verbump bumps the version recorded in a JSON package manifest, runs the
manifest's version lifecycle scripts, and records the new version as a git
commit and tag.`,
		Version:       version.Summary(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetVersionTemplate("verbump " + version.Details() + "\n")
	rootCmd.PersistentFlags().StringVar(&opts.manifest, "manifest", "", "Path to the package manifest (default composer.json)")
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to the config file (default ./.verbump.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Log diagnostics to stderr")
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newJournalCmd(opts))
	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// reportedError marks an error already shown to the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

// IsReported reports whether err was already printed by a command
func IsReported(err error) bool {
	var reported *reportedError
	return errors.As(err, &reported)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
