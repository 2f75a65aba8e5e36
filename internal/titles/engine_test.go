package titles

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/landtitles/internal/table"
)

var (
	ownerColumns      = []string{"owner_id", "owner_lastname", "owner_firstname"}
	titleColumns      = []string{"nr_titlu", "no_titlu", "data_titlu", "pdf_titlu", "aria_reconst", "aria_constit"}
	townershipColumns = []string{"townership_owner_id", "townership_nr_titlu"}
	parcelColumns     = []string{"parcel_dno", "parcel_larea", "parcel_tno", "parcel_pno"}
)

type fixture struct {
	owner      *table.Table
	titles     *table.Table
	townership *table.Table
	parcel     *table.Table
}

func newFixture() *fixture {
	return &fixture{
		owner:      table.New(TableOwner, ownerColumns),
		titles:     table.New(TableTitles, titleColumns),
		townership: table.New(TableTownership, townershipColumns),
		parcel:     table.New(TableParcel, parcelColumns),
	}
}

func (f *fixture) set(t *testing.T, skip ...string) *table.Set {
	t.Helper()
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}
	set := table.NewSet()
	for _, tbl := range []*table.Table{f.owner, f.titles, f.townership, f.parcel} {
		if !skipped[tbl.Name] {
			set.Add(tbl)
		}
	}
	return set
}

func add(t *testing.T, tbl *table.Table, values ...any) {
	t.Helper()
	require.NoError(t, tbl.AppendRow(table.Row(values)))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProcessMatchesTitleAndParcelOnText(t *testing.T) {
	f := newFixture()
	add(t, f.titles, int64(100), "T-100", date(2019, 5, 2), "t100.pdf", 1.5, 1.25)
	add(t, f.parcel, int64(100), 0.75, "12", "345")

	result, err := Process(f.set(t))
	require.NoError(t, err)

	twp := result.TitlesWithParcels
	require.Equal(t, 1, twp.Len())
	for _, column := range []string{"parcel_dno", "parcel_larea", "parcel_tno", "parcel_pno"} {
		value, ok := twp.Value(0, column)
		require.True(t, ok, column)
		assert.NotNil(t, value, column)
	}
	value, _ := twp.Value(0, "parcel_larea")
	assert.Equal(t, 0.75, value)
}

func TestProcessMatchesTextTitleAgainstNumericParcel(t *testing.T) {
	f := newFixture()
	add(t, f.titles, "100", "T-100", nil, nil, nil, nil)
	add(t, f.parcel, float64(100), 0.75, "12", "345")

	result, err := Process(f.set(t))
	require.NoError(t, err)

	require.Equal(t, 1, result.TitlesWithParcels.Len())
	value, _ := result.TitlesWithParcels.Value(0, "parcel_tno")
	assert.Equal(t, "12", value)
}

func TestProcessUnmatchedTitleCarriesNullParcel(t *testing.T) {
	f := newFixture()
	add(t, f.titles, int64(200), "T-200", nil, nil, nil, nil)
	add(t, f.parcel, int64(300), 1.0, "1", "2")

	result, err := Process(f.set(t))
	require.NoError(t, err)

	twp := result.TitlesWithParcels
	require.Equal(t, 1, twp.Len())
	for _, column := range []string{"parcel_dno", "parcel_larea", "parcel_tno", "parcel_pno", "parcel_dno_str"} {
		value, ok := twp.Value(0, column)
		require.True(t, ok, column)
		assert.Nil(t, value, column)
	}
}

func TestProcessCollapsesDuplicateOwnersInCompact(t *testing.T) {
	f := newFixture()
	add(t, f.owner, int64(1), "Popescu", "Ion")
	add(t, f.owner, int64(2), "Popescu", "Ion")
	add(t, f.titles, int64(100), "T-100", date(2020, 1, 15), "t100.pdf", 2.0, 2.0)
	add(t, f.townership, int64(1), int64(100))
	add(t, f.townership, int64(2), int64(100))
	add(t, f.parcel, int64(100), 0.5, "7", "8")

	result, err := Process(f.set(t))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Full.Len())
	require.Equal(t, 1, result.Compact.Len())
	assert.Equal(t, CompactColumns, result.Compact.Columns)
	assert.Equal(t, table.Row{
		"T-100", date(2020, 1, 15), "t100.pdf",
		"Popescu", "Ion",
		2.0, 2.0,
		0.5, "7", "8",
	}, result.Compact.Rows[0])
}

func TestProcessFullTableShape(t *testing.T) {
	f := newFixture()
	add(t, f.owner, int64(1), "Ionescu", "Maria")
	add(t, f.titles, int64(100), "T-100", nil, nil, nil, nil)
	add(t, f.titles, int64(101), "T-101", nil, nil, nil, nil)
	add(t, f.townership, int64(1), int64(100))
	add(t, f.townership, int64(9), int64(101))
	add(t, f.townership, int64(1), int64(999))
	add(t, f.parcel, int64(100), 1.0, "a", "b")
	add(t, f.parcel, int64(100), 2.0, "c", "d")

	result, err := Process(f.set(t))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.TitlesWithParcels.Len(), 2)
	assert.Equal(t, 3, result.TownWithOwner.Len())
	// townership 1 -> title 100 matches two parcels; the others keep one row each.
	assert.Equal(t, 4, result.Full.Len())
	assert.LessOrEqual(t, result.Compact.Len(), result.Full.Len())

	expected := append([]string{}, townershipColumns...)
	expected = append(expected, ownerColumns...)
	expected = append(expected, titleColumns...)
	expected = append(expected, "nr_titlu_str")
	expected = append(expected, parcelColumns...)
	expected = append(expected, "parcel_dno_str")
	assert.Equal(t, expected, result.Full.Columns)

	orphan, _ := result.Full.Value(3, "no_titlu")
	assert.Nil(t, orphan)
	stranger, _ := result.Full.Value(2, "owner_lastname")
	assert.Nil(t, stranger)
}

func TestProcessKeepsRawTitleComparison(t *testing.T) {
	f := newFixture()
	add(t, f.titles, int64(100), "T-100", nil, nil, nil, nil)
	add(t, f.townership, int64(1), "100")

	result, err := Process(f.set(t))
	require.NoError(t, err)

	require.Equal(t, 1, result.Full.Len())
	value, _ := result.Full.Value(0, "no_titlu")
	assert.Nil(t, value)
}

func TestProcessEveryTitleSurvivesParcelJoin(t *testing.T) {
	f := newFixture()
	for i := int64(1); i <= 5; i++ {
		add(t, f.titles, i, nil, nil, nil, nil, nil)
	}
	add(t, f.parcel, int64(2), nil, nil, nil)
	add(t, f.parcel, int64(2), nil, nil, nil)
	add(t, f.parcel, "4", nil, nil, nil)

	result, err := Process(f.set(t))
	require.NoError(t, err)

	joined, err := result.TitlesWithParcels.Column("nr_titlu")
	require.NoError(t, err)
	for i := int64(1); i <= 5; i++ {
		assert.Contains(t, joined, i)
	}
	assert.Equal(t, 6, result.TitlesWithParcels.Len())
}

func TestProcessDoesNotMutateInputs(t *testing.T) {
	f := newFixture()
	add(t, f.titles, int64(100), "T-100", nil, nil, nil, nil)
	add(t, f.parcel, int64(100), 0.5, "7", "8")

	_, err := Process(f.set(t))
	require.NoError(t, err)

	assert.Equal(t, titleColumns, f.titles.Columns)
	assert.Equal(t, parcelColumns, f.parcel.Columns)
	assert.Len(t, f.titles.Rows[0], len(titleColumns))
}

func TestProcessMissingTables(t *testing.T) {
	for _, name := range RequiredTables {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			result, err := Process(f.set(t, name))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrMissingTables))

			var missing *MissingTablesError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, []string{name}, missing.Missing)
		})
	}
}

func TestProcessReportsEveryMissingTable(t *testing.T) {
	result, err := Process(table.NewSet())
	require.Error(t, err)
	assert.Nil(t, result)

	var missing *MissingTablesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, RequiredTables, missing.Missing)
}

func TestProcessFailsWhenCompactColumnMissing(t *testing.T) {
	f := newFixture()
	f.parcel = table.New(TableParcel, []string{"parcel_dno", "parcel_larea"})

	result, err := Process(f.set(t))
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestCompactIsIdempotent(t *testing.T) {
	f := newFixture()
	add(t, f.owner, int64(1), "A", "B")
	add(t, f.owner, int64(2), "A", "B")
	add(t, f.owner, int64(3), "C", "D")
	add(t, f.titles, int64(100), "T", nil, nil, nil, nil)
	add(t, f.townership, int64(1), int64(100))
	add(t, f.townership, int64(2), int64(100))
	add(t, f.townership, int64(3), int64(100))

	result, err := Process(f.set(t))
	require.NoError(t, err)

	again, err := Compact(result.Compact)
	require.NoError(t, err)
	assert.Equal(t, result.Compact.Columns, again.Columns)
	assert.Equal(t, result.Compact.Rows, again.Rows)
	assert.Equal(t, 2, again.Len())
}
