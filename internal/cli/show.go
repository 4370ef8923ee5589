package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <key>",
		Short:         "Print the document a tenant key resolves to",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
}

func runShow(opts *RootOptions, key string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	env, err := opts.Load(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "cannot open store", err)
	}
	defer env.Close()

	doc, err := env.Store.FindByKey(cmd.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return f.Fail(ExitFailure, ErrCodeNotFound, "key "+key+" is not bound", nil)
		}
		return f.Fail(ExitFailure, ErrCodeStore, "resolve key", err)
	}
	return f.Success(doc, describe(doc))
}

func describe(doc *content.Document) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, doc.Body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(doc.Body)
	}
	return fmt.Sprintf("document %s\nkind     %s\nversion  %d\nupdated  %s\n%s",
		doc.ID, doc.Kind, doc.Version, doc.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"), pretty.String())
}
