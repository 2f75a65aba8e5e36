// Package titles joins land titles, owners, townships and parcels into the full and
// compact export views.
package titles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/landtitles/internal/table"
)

// Required source tables.
const (
	TableOwner      = "Owner"
	TableTitles     = "Titluri_L18"
	TableTownership = "townership"
	TableParcel     = "Parcel"
)

// Derived table names.
const (
	TitlesWithParcels = "titles_with_parcels"
	TownWithOwner     = "town_with_owner"
	FullTable         = "full_table"
	CompactTable      = "compact_table"
)

// Key columns. The *_str columns are text renderings added before the title-parcel join.
const (
	ColOwnerID         = "owner_id"
	ColTitleNumber     = "nr_titlu"
	ColTitleNumberText = "nr_titlu_str"
	ColParcelDocNo     = "parcel_dno"
	ColParcelDocNoText = "parcel_dno_str"
	ColTownershipOwner = "townership_owner_id"
	ColTownershipTitle = "townership_nr_titlu"
)

// RequiredTables lists the tables Process needs, in reporting order.
var RequiredTables = []string{TableOwner, TableTitles, TableTownership, TableParcel}

// CompactColumns is the fixed projection of the compact view.
var CompactColumns = []string{
	"no_titlu", "data_titlu", "pdf_titlu",
	"owner_lastname", "owner_firstname",
	"aria_reconst", "aria_constit",
	"parcel_larea", "parcel_tno", "parcel_pno",
}

// ErrMissingTables is matched by every MissingTablesError.
var ErrMissingTables = errors.New("required tables missing")

// MissingTablesError lists the required tables absent from the input.
type MissingTablesError struct {
	Missing []string
}

func (e *MissingTablesError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingTables, strings.Join(e.Missing, ", "))
}

// Is lets errors.Is(err, ErrMissingTables) match.
func (e *MissingTablesError) Is(target error) bool {
	return target == ErrMissingTables
}

// Result carries both export views plus the intermediate joins.
type Result struct {
	Full              *table.Table
	Compact           *table.Table
	TitlesWithParcels *table.Table
	TownWithOwner     *table.Table
}

// Process validates the input, runs the three left-outer joins and derives the
// compact view. On any error no table is returned.
func Process(tables *table.Set) (*Result, error) {
	var missing []string
	for _, name := range RequiredTables {
		if _, ok := tables.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingTablesError{Missing: missing}
	}

	owner, _ := tables.Get(TableOwner)
	titles, _ := tables.Get(TableTitles)
	townership, _ := tables.Get(TableTownership)
	parcel, _ := tables.Get(TableParcel)

	parcelKeyed, err := parcel.WithTextColumn(ColParcelDocNoText, ColParcelDocNo)
	if err != nil {
		return nil, err
	}
	titlesKeyed, err := titles.WithTextColumn(ColTitleNumberText, ColTitleNumber)
	if err != nil {
		return nil, err
	}

	titlesWithParcels, err := table.LeftJoin(titlesKeyed, parcelKeyed, table.JoinSpec{
		Name:    TitlesWithParcels,
		LeftOn:  ColTitleNumberText,
		RightOn: ColParcelDocNoText,
	})
	if err != nil {
		return nil, err
	}

	townWithOwner, err := table.LeftJoin(townership, owner, table.JoinSpec{
		Name:    TownWithOwner,
		LeftOn:  ColTownershipOwner,
		RightOn: ColOwnerID,
	})
	if err != nil {
		return nil, err
	}

	// Raw comparison: townership_nr_titlu is matched against the un-normalised
	// nr_titlu, unlike the text-keyed title-parcel join above.
	full, err := table.LeftJoin(townWithOwner, titlesWithParcels, table.JoinSpec{
		Name:    FullTable,
		LeftOn:  ColTownershipTitle,
		RightOn: ColTitleNumber,
	})
	if err != nil {
		return nil, err
	}

	compact, err := Compact(full)
	if err != nil {
		return nil, err
	}

	return &Result{
		Full:              full,
		Compact:           compact,
		TitlesWithParcels: titlesWithParcels,
		TownWithOwner:     townWithOwner,
	}, nil
}

// Compact projects onto CompactColumns and drops duplicate rows, keeping first
// occurrences. Applying it to its own output is a no-op.
func Compact(full *table.Table) (*table.Table, error) {
	projected, err := full.Project(CompactColumns...)
	if err != nil {
		return nil, err
	}
	compact := projected.Distinct()
	compact.Name = CompactTable
	return compact, nil
}
