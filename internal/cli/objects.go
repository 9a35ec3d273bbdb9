package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arllen133/objstore"
	"github.com/arllen133/objstore/clause"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the document table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Open migrates.
			app, err := rootOpts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "table %s ready\n", app.Config.Database.Table)
			return nil
		},
	}
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "create <class> <json>",
		Short:   "Create a document",
		Example: `  objstore create Post '{"title":"hello"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseObject(args[1])
			if err != nil {
				return err
			}
			app, err := rootOpts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			obj, err := app.Store.CreateObject(cmd.Context(), objstore.CreateObjectInput{
				ClassName: args[0],
				Data:      data,
				Context:   app.NewContext(rootOpts.Root),
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, obj)
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "get <class> <id>",
		Short: "Print one document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			obj, err := app.Store.GetObject(cmd.Context(), objstore.GetObjectInput{
				ClassName: args[0],
				ID:        args[1],
				Context:   app.NewContext(rootOpts.Root),
				Fields:    fields,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, obj)
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to print (default all)")
	return cmd
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Where  []string
	Order  string
	Limit  uint64
	Offset uint64
	Fields []string
	Count  bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "list <class>",
		Short:   "Print the documents of a class",
		Example: `  objstore list Post --where status=draft --order -createdAt --limit 10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			where, err := parseWhere(opts.Where)
			if err != nil {
				return err
			}
			app, err := opts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if opts.Count {
				n, err := app.Store.Count(cmd.Context(), args[0], where)
				if err != nil {
					return err
				}
				return writeJSON(cmd, map[string]int64{"count": n})
			}

			objs, err := app.Store.GetObjects(cmd.Context(), objstore.GetObjectsInput{
				ClassName: args[0],
				Where:     where,
				OrderBy:   parseOrder(opts.Order),
				Limit:     opts.Limit,
				Offset:    opts.Offset,
				Context:   app.NewContext(opts.Root),
				Fields:    opts.Fields,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, objs)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "filter as field=value, repeatable")
	cmd.Flags().StringVar(&opts.Order, "order", "", "order by field, prefix with - for descending")
	cmd.Flags().Uint64Var(&opts.Limit, "limit", 0, "maximum number of documents")
	cmd.Flags().Uint64Var(&opts.Offset, "offset", 0, "number of documents to skip")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "fields to print (default all)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matching documents")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <class> <id> <json>",
		Short: "Merge a patch into a document",
		Long: `Merge a JSON patch into a document. A null value removes the field.

Example:
  objstore update Post 0190c1f2-... '{"status":"published","draft":null}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseObject(args[2])
			if err != nil {
				return err
			}
			app, err := rootOpts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			obj, err := app.Store.UpdateObject(cmd.Context(), objstore.UpdateObjectInput{
				ClassName: args[0],
				ID:        args[1],
				Data:      patch,
				Context:   app.NewContext(rootOpts.Root),
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, obj)
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <class> <id>",
		Short: "Delete a document and print it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			obj, err := app.Store.DeleteObject(cmd.Context(), objstore.DeleteObjectInput{
				ClassName: args[0],
				ID:        args[1],
				Context:   app.NewContext(rootOpts.Root),
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, obj)
		},
	}
}

func parseObject(s string) (objstore.Object, error) {
	var obj objstore.Object
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("invalid document JSON: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("invalid document JSON: expected an object")
	}
	return obj, nil
}

// parseWhere turns field=value pairs into an AND of equalities. Values that parse
// as JSON (numbers, booleans, null) keep their type; anything else is a string.
func parseWhere(pairs []string) (clause.Expression, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	and := make(clause.And, 0, len(pairs))
	for _, pair := range pairs {
		field, raw, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --where %q: expected field=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		and = append(and, clause.F(field).Eq(value))
	}
	return and, nil
}

func parseOrder(s string) []clause.OrderBy {
	if s == "" {
		return nil
	}
	if field, ok := strings.CutPrefix(s, "-"); ok {
		return []clause.OrderBy{clause.F(field).Desc()}
	}
	return []clause.OrderBy{clause.F(s).Asc()}
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd, objstore.ConfigSchema())
		},
	}
}
