// Package cli implements contentctl, the out-of-band tool that provisions
// documents and tenant keys and recovers snapshots.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Load opens the store and optional collaborators. Tests swap it out.
	Load EnvLoader
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command wired to the configured store.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithLoader(LoadEnvFromConfig)
}

// NewRootCommandWithLoader creates the root command with a custom environment loader.
func NewRootCommandWithLoader(load EnvLoader) *cobra.Command {
	opts := &RootOptions{Load: load}

	cmd := &cobra.Command{
		Use:   "contentctl",
		Short: "contentctl - content store administration",
		Long:  "Create documents, bind tenant keys and recover snapshots of the content store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewBindCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
