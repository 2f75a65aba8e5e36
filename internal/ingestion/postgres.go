package ingestion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/landtitles/internal/table"
)

const listPostgresTables = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`

// PostgresSource reads every base table of a schema, e.g. an Access export
// restored into Postgres.
type PostgresSource struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresSource reads from schema using pool. An empty schema means public.
func NewPostgresSource(pool *pgxpool.Pool, schema string) *PostgresSource {
	if schema == "" {
		schema = "public"
	}
	return &PostgresSource{pool: pool, schema: schema}
}

// Tables implements TableSource.
func (s *PostgresSource) Tables(ctx context.Context) (*table.Set, error) {
	rows, err := s.pool.Query(ctx, listPostgresTables, s.schema)
	if err != nil {
		return nil, fmt.Errorf("list tables in schema %s: %w", s.schema, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list tables in schema %s: %w", s.schema, err)
	}

	set := table.NewSet()
	for _, name := range names {
		tbl, err := s.readTable(ctx, name)
		if err != nil {
			return nil, err
		}
		set.Add(tbl)
	}
	return set, nil
}

func (s *PostgresSource) readTable(ctx context.Context, name string) (*table.Table, error) {
	query := "SELECT * FROM " + pgx.Identifier{s.schema, name}.Sanitize()
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name
	}

	tbl := table.New(name, columns)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", name, err)
		}
		row := make(table.Row, len(values))
		for i, value := range values {
			row[i] = normalizePostgresValue(value)
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	return tbl, nil
}

func normalizePostgresValue(value any) any {
	switch v := value.(type) {
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		if i, err := v.Int64Value(); err == nil && i.Valid && v.Exp >= 0 {
			return i.Int64
		}
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", v[0:4], v[4:6], v[6:8], v[8:10], v[10:16])
	default:
		return table.Normalize(value)
	}
}
