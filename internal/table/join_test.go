package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeftJoinPreservesUnmatchedLeftRows(t *testing.T) {
	left := mustTable(t, "titles", []string{"nr", "no"},
		Row{"100", "T-1"},
		Row{"200", "T-2"},
	)
	right := mustTable(t, "parcels", []string{"dno", "area"},
		Row{"100", 12.5},
	)

	out, err := LeftJoin(left, right, JoinSpec{Name: "tp", LeftOn: "nr", RightOn: "dno"})
	require.NoError(t, err)

	assert.Equal(t, []string{"nr", "no", "dno", "area"}, out.Columns)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, Row{"100", "T-1", "100", 12.5}, out.Rows[0])
	assert.Equal(t, Row{"200", "T-2", nil, nil}, out.Rows[1])
}

func TestLeftJoinMultipliesRowsOnManyMatches(t *testing.T) {
	left := mustTable(t, "l", []string{"k"}, Row{int64(1)}, Row{int64(2)})
	right := mustTable(t, "r", []string{"rk", "v"},
		Row{int64(1), "a"},
		Row{int64(1), "b"},
		Row{int64(2), "c"},
	)

	out, err := LeftJoin(left, right, JoinSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)

	require.Equal(t, 3, out.Len())
	assert.Equal(t, Row{int64(1), int64(1), "a"}, out.Rows[0])
	assert.Equal(t, Row{int64(1), int64(1), "b"}, out.Rows[1])
	assert.Equal(t, Row{int64(2), int64(2), "c"}, out.Rows[2])
}

func TestLeftJoinNullKeysNeverMatch(t *testing.T) {
	left := mustTable(t, "l", []string{"k"}, Row{nil})
	right := mustTable(t, "r", []string{"rk", "v"}, Row{nil, "x"})

	out, err := LeftJoin(left, right, JoinSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, Row{nil, nil, nil}, out.Rows[0])
}

func TestLeftJoinRawKeysDoNotMatchAcrossTypes(t *testing.T) {
	left := mustTable(t, "l", []string{"k"}, Row{int64(100)}, Row{float64(100)})
	right := mustTable(t, "r", []string{"rk", "v"}, Row{"100", "text"}, Row{int64(100), "num"})

	out, err := LeftJoin(left, right, JoinSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, "num", out.Rows[0][2])
	assert.Equal(t, "num", out.Rows[1][2])
}

func TestLeftJoinLargeIntegerKeys(t *testing.T) {
	left := mustTable(t, "l", []string{"k"}, Row{int64(9007199254740993)})
	right := mustTable(t, "r", []string{"rk", "v"},
		Row{int64(9007199254740992), "below"},
		Row{int64(9007199254740993), "exact"},
	)

	out, err := LeftJoin(left, right, JoinSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "exact", out.Rows[0][2])
}

func TestLeftJoinSuffixesCollidingColumns(t *testing.T) {
	left := mustTable(t, "l", []string{"id", "name"}, Row{int64(1), "left"})
	right := mustTable(t, "r", []string{"ref", "name"}, Row{int64(1), "right"})

	out, err := LeftJoin(left, right, JoinSpec{LeftOn: "id", RightOn: "ref"})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name_x", "ref", "name_y"}, out.Columns)
}

func TestLeftJoinSharedKeyEmittedOnce(t *testing.T) {
	left := mustTable(t, "l", []string{"id", "a"}, Row{int64(1), "x"})
	right := mustTable(t, "r", []string{"id", "b"}, Row{int64(1), "y"})

	out, err := LeftJoin(left, right, JoinSpec{LeftOn: "id", RightOn: "id"})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "a", "b"}, out.Columns)
	assert.Equal(t, Row{int64(1), "x", "y"}, out.Rows[0])
}

func TestLeftJoinMissingKeyColumn(t *testing.T) {
	left := New("l", []string{"k"})
	right := New("r", []string{"v"})

	_, err := LeftJoin(left, right, JoinSpec{LeftOn: "k", RightOn: "rk"})
	require.Error(t, err)

	_, err = LeftJoin(left, right, JoinSpec{LeftOn: "missing", RightOn: "v"})
	require.Error(t, err)
}

func TestProjectAndDistinct(t *testing.T) {
	tbl := mustTable(t, "full", []string{"a", "b", "c"},
		Row{int64(1), "x", "drop-1"},
		Row{int64(1), "x", "drop-2"},
		Row{float64(1), "x", "drop-3"},
		Row{nil, "y", "drop-4"},
		Row{nil, "y", "drop-5"},
		Row{int64(2), "x", "drop-6"},
	)

	projected, err := tbl.Project("b", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, projected.Columns)
	assert.Equal(t, tbl.Len(), projected.Len())

	distinct := projected.Distinct()
	require.Equal(t, 3, distinct.Len())
	assert.Equal(t, Row{"x", int64(1)}, distinct.Rows[0])
	assert.Equal(t, Row{"y", nil}, distinct.Rows[1])
	assert.Equal(t, Row{"x", int64(2)}, distinct.Rows[2])

	again := distinct.Distinct()
	assert.Equal(t, distinct.Rows, again.Rows)
}

func TestDistinctKeepsLargeIntegersApart(t *testing.T) {
	tbl := mustTable(t, "ids", []string{"id"},
		Row{int64(9007199254740992)},
		Row{int64(9007199254740993)},
		Row{float64(9007199254740992)},
	)

	distinct := tbl.Distinct()
	require.Equal(t, 2, distinct.Len())
	assert.Equal(t, Row{int64(9007199254740992)}, distinct.Rows[0])
	assert.Equal(t, Row{int64(9007199254740993)}, distinct.Rows[1])
}

func TestDistinctSeparatorBytesInText(t *testing.T) {
	tbl := mustTable(t, "t", []string{"a", "b"},
		Row{"x\x1f\x01y", "z"},
		Row{"x", "y\x1f\x01z"},
		Row{"", nil},
		Row{nil, ""},
		Row{nil, nil},
	)

	distinct := tbl.Distinct()
	assert.Equal(t, 5, distinct.Len())
}

func TestProjectUnknownColumn(t *testing.T) {
	tbl := New("t", []string{"a"})
	_, err := tbl.Project("a", "b")
	require.Error(t, err)
}
