package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/collection"
	"github.com/spf13/cobra"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Key string
}

// CreateResult is printed by create.
type CreateResult struct {
	DocumentID string `json:"documentId"`
	Kind       string `json:"kind"`
	Key        string `json:"key,omitempty"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create [file]",
		Short: "Create a document from a JSON file or stdin",
		Long: `Create a document whose body is the JSON value read from file, or from
stdin when file is omitted or "-". An empty input creates an empty record set.

Example:
  contentctl create seed.json --key tenant-a
  echo '[]' | contentctl create --key tenant-b`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runCreate(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "tenant key to bind to the new document")

	return cmd
}

func runCreate(opts *CreateOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	raw, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "cannot read "+path, err)
	}
	if len(raw) > 0 {
		if _, err := collection.Parse(raw); err != nil {
			return f.Fail(ExitCommandError, ErrCodeInput, "input is not valid JSON", err)
		}
	}

	env, err := opts.Load(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "cannot open store", err)
	}
	defer env.Close()

	doc := &content.Document{Body: json.RawMessage(raw)}
	id, err := env.Store.CreateDocument(cmd.Context(), doc)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStore, "create document", err)
	}
	f.VerboseLog("created document %s (%s, version %d)", id, doc.Kind, doc.Version)

	res := CreateResult{DocumentID: id, Kind: doc.Kind}
	if opts.Key != "" {
		if err := env.Store.BindKey(cmd.Context(), opts.Key, id); err != nil {
			return f.Fail(ExitFailure, ErrCodeStore, "bind key", err)
		}
		res.Key = opts.Key
	}

	text := id
	if res.Key != "" {
		text = fmt.Sprintf("%s (bound to %s)", id, res.Key)
	}
	return f.Success(res, text)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
