package cli

import (
	"errors"
	"fmt"

	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/spf13/cobra"
)

// NewBindCommand creates the bind command.
func NewBindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bind <key> <document-id>",
		Short: "Point a tenant key at a document",
		Long: `Bind a tenant key to an existing document. A key that is already bound
is moved to the new document.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBind(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runBind(opts *RootOptions, key, documentID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	env, err := opts.Load(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "cannot open store", err)
	}
	defer env.Close()

	if err := env.Store.BindKey(cmd.Context(), key, documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return f.Fail(ExitFailure, ErrCodeNotFound, "document "+documentID+" not found", nil)
		}
		return f.Fail(ExitFailure, ErrCodeStore, "bind key", err)
	}
	return f.Success(map[string]string{"key": key, "documentId": documentID}, fmt.Sprintf("%s -> %s", key, documentID))
}
