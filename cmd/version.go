package cmd

import (
	"github.com/compozy/verbump/internal/domain"
	"github.com/compozy/verbump/internal/orchestrator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newVersionCmd creates the version command
func newVersionCmd(opts *rootOptions) *cobra.Command {
	var (
		versionDryRun   bool
		versionNoGitTag bool
		versionJournal  bool
	)
	cmd := &cobra.Command{
		Use:   "version [newversion]",
		Short: "Show or bump the package version",
		Long: `Show the package version, or bump it and record the result.

newversion is an explicit semantic version or one of:
  major, minor, patch
  premajor, preminor, prepatch, prerelease (use --preid)
  devmajor, devminor, devpatch
  from-git (the version tag at HEAD)

Without newversion the current package version and the tool version are shown.

A bump runs the manifest scripts pre-version, pre-version-commit and
post-version around the write. Unless --no-git-tag-version is given, the
manifest is committed and tagged with the new version. A failure after the
manifest write restores the previous version.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			err := bindFlags(v, cmd.Flags(), map[string]string{
				"manifest":       "manifest",
				"preid":          "preid",
				"commit_message": "message",
				"tag_prefix":     "tag-prefix",
			})
			if err != nil {
				return err
			}
			if versionNoGitTag {
				v.Set("git_tag_version", false)
			}
			c, err := newContainer(opts, v, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer c.close()
			var newVersion string
			if len(args) == 1 {
				newVersion = args[0]
			}
			_, err = c.bumpOrchestrator().Execute(cmd.Context(), orchestrator.BumpConfig{
				NewVersion:    newVersion,
				PreID:         c.cfg.PreID,
				DryRun:        versionDryRun,
				GitTagVersion: c.cfg.GitTagVersion,
				CommitMessage: c.cfg.CommitMessage,
				TagPrefix:     c.cfg.TagPrefix,
				Journal:       versionJournal,
			})
			if err != nil {
				c.reporter.Error(err.Error())
				return &reportedError{err: err}
			}
			return nil
		},
	}

	cmd.Flags().String("preid", domain.DefaultPreID, "Prerelease identifier (alpha, a, beta, b, patch, p, rc)")
	cmd.Flags().StringP("message", "m", "%s", "Commit message; %s is replaced by the new version")
	cmd.Flags().String("tag-prefix", "", "Prefix prepended to the version in the tag name")
	cmd.Flags().BoolVar(&versionDryRun, "dry-run", false, "Show the new version without changing anything")
	cmd.Flags().BoolVar(&versionNoGitTag, "no-git-tag-version", false, "Do not commit and tag the new version")
	cmd.Flags().BoolVar(&versionJournal, "journal", false, "Record the bump session for later inspection")
	return cmd
}
