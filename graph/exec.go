package graph

import (
	"bytes"
	"context"
	_ "embed"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/rpattn/landtitles/graph/model"
)

//go:embed schema.graphqls
var sourceData string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: sourceData})

// ResolverRoot is implemented by the application resolver.
type ResolverRoot interface {
	Query() QueryResolver
}

type QueryResolver interface {
	ProcessedResult(ctx context.Context, id string, previewRows *int) (*model.ProcessedResult, error)
}

type Config struct {
	Resolvers ResolverRoot
}

// NewExecutableSchema creates an ExecutableSchema from the Config.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{resolvers: cfg.Resolvers}
}

type executableSchema struct {
	resolvers ResolverRoot
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(typeName, field string, childComplexity int, rawArgs map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	if opCtx.Operation.Operation != ast.Query {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	ec := &executionContext{OperationContext: opCtx, resolvers: e.resolvers}
	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false
		data := ec.query(ctx, opCtx.Operation.SelectionSet)
		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		return &graphql.Response{Data: buf.Bytes()}
	}
}

type executionContext struct {
	*graphql.OperationContext
	resolvers ResolverRoot
}

var (
	queryImplementors           = []string{"Query"}
	processedResultImplementors = []string{"ProcessedResult"}
	tablePreviewImplementors    = []string{"TablePreview"}
)

func (ec *executionContext) query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, queryImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Query")
		case "__schema", "__type":
			fc := &graphql.FieldContext{Object: "Query", Field: field}
			graphql.AddErrorf(graphql.WithFieldContext(ctx, fc), "introspection disabled")
			out.Values[i] = graphql.Null
		case "processedResult":
			out.Values[i] = ec.processedResult(ctx, field)
		default:
			panic("unknown field " + strconv.Quote(field.Name))
		}
	}
	return out
}

func (ec *executionContext) processedResult(ctx context.Context, field graphql.CollectedField) (ret graphql.Marshaler) {
	fc := &graphql.FieldContext{
		Object:     "Query",
		Field:      field,
		IsMethod:   true,
		IsResolver: true,
	}
	ctx = graphql.WithFieldContext(ctx, fc)
	defer func() {
		if r := recover(); r != nil {
			graphql.AddError(ctx, ec.Recover(ctx, r))
			ret = graphql.Null
		}
	}()

	rawArgs := field.ArgumentMap(ec.Variables)
	id, err := graphql.UnmarshalID(rawArgs["id"])
	if err != nil {
		graphql.AddError(ctx, err)
		return graphql.Null
	}
	var previewRows *int
	if raw, ok := rawArgs["previewRows"]; ok && raw != nil {
		n, err := graphql.UnmarshalInt(raw)
		if err != nil {
			graphql.AddError(ctx, err)
			return graphql.Null
		}
		previewRows = &n
	}
	fc.Args = map[string]any{"id": id, "previewRows": previewRows}

	resolve := func(rctx context.Context) (any, error) {
		return ec.resolvers.Query().ProcessedResult(rctx, id, previewRows)
	}
	var resTmp any
	if ec.ResolverMiddleware != nil {
		resTmp, err = ec.ResolverMiddleware(ctx, resolve)
	} else {
		resTmp, err = resolve(ctx)
	}
	if err != nil {
		graphql.AddError(ctx, err)
		return graphql.Null
	}
	res, _ := resTmp.(*model.ProcessedResult)
	if res == nil {
		return graphql.Null
	}
	fc.Result = res
	return ec.marshalProcessedResult(ctx, field.Selections, res)
}

func (ec *executionContext) marshalProcessedResult(ctx context.Context, sel ast.SelectionSet, obj *model.ProcessedResult) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, processedResultImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("ProcessedResult")
		case "id":
			out.Values[i] = graphql.MarshalID(obj.ID)
		case "source":
			out.Values[i] = graphql.MarshalString(obj.Source)
		case "createdAt":
			out.Values[i] = graphql.MarshalString(obj.CreatedAt)
		case "expiresAt":
			out.Values[i] = graphql.MarshalString(obj.ExpiresAt)
		case "downloadUrl":
			out.Values[i] = graphql.MarshalString(obj.DownloadURL)
		case "fullTable":
			out.Values[i] = ec.marshalTablePreview(ctx, field.Selections, obj.FullTable)
		case "compactTable":
			out.Values[i] = ec.marshalTablePreview(ctx, field.Selections, obj.CompactTable)
		default:
			panic("unknown field " + strconv.Quote(field.Name))
		}
	}
	return out
}

func (ec *executionContext) marshalTablePreview(ctx context.Context, sel ast.SelectionSet, obj *model.TablePreview) graphql.Marshaler {
	if obj == nil {
		return graphql.Null
	}
	fields := graphql.CollectFields(ec.OperationContext, sel, tablePreviewImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("TablePreview")
		case "name":
			out.Values[i] = graphql.MarshalString(obj.Name)
		case "columns":
			columns := make(graphql.Array, len(obj.Columns))
			for j, column := range obj.Columns {
				columns[j] = graphql.MarshalString(column)
			}
			out.Values[i] = columns
		case "totalRows":
			out.Values[i] = graphql.MarshalInt(obj.TotalRows)
		case "rows":
			out.Values[i] = marshalRows(obj.Rows)
		default:
			panic("unknown field " + strconv.Quote(field.Name))
		}
	}
	return out
}

func marshalRows(rows [][]*string) graphql.Marshaler {
	out := make(graphql.Array, len(rows))
	for i, row := range rows {
		cells := make(graphql.Array, len(row))
		for j, cell := range row {
			if cell == nil {
				cells[j] = graphql.Null
				continue
			}
			cells[j] = graphql.MarshalString(*cell)
		}
		out[i] = cells
	}
	return out
}
