package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/db/mongodb"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/db/sqlstore"
	"github.com/davicafu/hexaquery/shared/platform/query"
	"github.com/davicafu/hexaquery/shared/platform/querystring"
)

type compileOptions struct {
	target   string
	op       string
	resource string
	set      string
	names    querystring.NameMapper
}

var compileFlags compileOptions

var compileCmd = &cobra.Command{
	Use:   "compile <querystring>",
	Short: "Traduce un querystring a SQL o a un pipeline de MongoDB",
	Example: `  hexaquery compile 'age=gte.18&order=name.asc&limit=10'
  hexaquery compile --target mongodb 'status=in.(open,closed)'
  hexaquery compile --op update --set '{"status":"done"}' 'id=eq.3'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := compileFlags
		opts.names = nameMapper(strings.ToLower(v.GetString("names")))
		return compile(cmd.OutOrStdout(), args[0], opts)
	},
}

func init() {
	flags := compileCmd.Flags()
	flags.StringVar(&compileFlags.target, "target", "postgres", "destino: postgres, sqlite o mongodb")
	flags.StringVar(&compileFlags.op, "op", "select", "operación: select, count, update o delete")
	flags.StringVar(&compileFlags.resource, "resource", "users", "tabla o colección")
	flags.StringVar(&compileFlags.set, "set", "", "valores JSON para --op update")
}

func compile(w io.Writer, raw string, opts compileOptions) error {
	if opts.names == nil {
		opts.names = querystring.SnakeNames
	}
	q := querystring.Decode(strings.TrimPrefix(raw, "?"), querystring.WithNames(opts.names))

	var values query.Record
	if opts.op == "update" {
		if opts.set == "" {
			return fmt.Errorf("--set is required for update")
		}
		record, err := query.UnmarshalRecord([]byte(opts.set))
		if err != nil {
			return fmt.Errorf("invalid --set: %w", err)
		}
		values = querystring.ConvertKeys(record, opts.names.FromWire)
	}

	switch opts.target {
	case "postgres", "sqlite":
		dialect := sqlstore.Postgres
		if opts.target == "sqlite" {
			dialect = sqlstore.SQLite
		}
		stmt, err := sqlStatement(sqlstore.NewCompiler(dialect), opts, q, values)
		if err != nil {
			return err
		}
		return writeStatement(w, stmt)
	case "mongodb":
		return writeMongo(w, opts, q, values)
	}
	return fmt.Errorf("unknown target %q", opts.target)
}

func sqlStatement(c sqlstore.Compiler, opts compileOptions, q query.Query, values query.Record) (sqlstore.Statement, error) {
	switch opts.op {
	case "select":
		return c.Select(opts.resource, q), nil
	case "count":
		return c.Count(opts.resource, q), nil
	case "update":
		return c.Update(opts.resource, q.WhereOnly(), values), nil
	case "delete":
		return c.Delete(opts.resource, q.WhereOnly()), nil
	}
	return sqlstore.Statement{}, fmt.Errorf("unknown operation %q", opts.op)
}

func writeStatement(w io.Writer, stmt sqlstore.Statement) error {
	args := stmt.Args
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n-- args: %s\n", stmt.Text, data)
	return err
}

// writeMongo escribe un documento de extended JSON por línea.
func writeMongo(w io.Writer, opts compileOptions, q query.Query, values query.Record) error {
	var docs []bson.D
	switch opts.op {
	case "select":
		docs = mongodb.Pipeline(q)
	case "count":
		docs = append(mongodb.Pipeline(q), bson.D{{Key: "$count", Value: "total"}})
	case "update":
		docs = []bson.D{mongodb.Filter(q), {{Key: "$set", Value: sortedDoc(values)}}}
	case "delete":
		docs = []bson.D{mongodb.Filter(q)}
	default:
		return fmt.Errorf("unknown operation %q", opts.op)
	}

	for _, doc := range docs {
		data, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}
	return nil
}

func sortedDoc(r query.Record) bson.D {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: r[k]})
	}
	return doc
}
