package graphql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/landtitles/graph"
	"github.com/rpattn/landtitles/graph/model"
	"github.com/rpattn/landtitles/internal/export"
	"github.com/rpattn/landtitles/internal/table"
)

// DefaultPreviewRows is used when a query does not ask for a preview size.
const DefaultPreviewRows = 50

// Resolver serves GraphQL reads over the processed-result store.
type Resolver struct {
	exports     *export.Service
	previewRows int
}

// NewResolver creates a new GraphQL resolver. previewRows below one keeps the default.
func NewResolver(exports *export.Service, previewRows int) *Resolver {
	if previewRows < 1 {
		previewRows = DefaultPreviewRows
	}
	return &Resolver{exports: exports, previewRows: previewRows}
}

// Query returns the query resolver.
func (r *Resolver) Query() graph.QueryResolver {
	return &queryResolver{r}
}

type queryResolver struct{ *Resolver }

// ProcessedResult returns nil for unknown or expired ids.
func (r *queryResolver) ProcessedResult(ctx context.Context, id string, previewRows *int) (*model.ProcessedResult, error) {
	resultID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid result id %q", id)
	}
	limit := r.previewRows
	if previewRows != nil {
		if *previewRows < 1 {
			return nil, errors.New("previewRows must be positive")
		}
		limit = *previewRows
	}

	entry, err := r.exports.Get(resultID)
	if errors.Is(err, export.ErrResultNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &model.ProcessedResult{
		ID:           entry.ID.String(),
		Source:       entry.Source,
		CreatedAt:    entry.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:    entry.ExpiresAt.UTC().Format(time.RFC3339),
		DownloadURL:  r.exports.BuildDownloadURL(entry.ID),
		FullTable:    toTablePreview(entry.Result.Full, limit),
		CompactTable: toTablePreview(entry.Result.Compact, limit),
	}, nil
}

func toTablePreview(tbl *table.Table, limit int) *model.TablePreview {
	head := tbl.Head(limit)
	rows := make([][]*string, len(head.Rows))
	for i, row := range head.Rows {
		cells := make([]*string, len(row))
		for j, value := range row {
			if table.IsNull(value) {
				continue
			}
			text := table.Text(value)
			cells[j] = &text
		}
		rows[i] = cells
	}
	return &model.TablePreview{
		Name:      tbl.Name,
		Columns:   append([]string(nil), tbl.Columns...),
		TotalRows: tbl.Len(),
		Rows:      rows,
	}
}
