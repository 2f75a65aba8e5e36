package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string, sheets map[string][][]any, order ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for rowIdx, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(dir, "titles.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var fixtureSheets = map[string][][]any{
	"Owner": {
		{"owner_id", "owner_lastname", "owner_firstname"},
		{7, "Popescu", "Ion"},
	},
	"Titluri_L18": {
		{"nr_titlu", "no_titlu", "data_titlu", "pdf_titlu", "aria_reconst", "aria_constit"},
		{100, "T-100", "2020-01-02", "t100.pdf", 1.5, 1.25},
	},
	"townership": {
		{"townership_owner_id", "townership_nr_titlu"},
		{7, 100},
	},
	"Parcel": {
		{"parcel_dno", "parcel_larea", "parcel_tno", "parcel_pno"},
		{100, 0.5, "12", "345"},
	},
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProcessWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir, fixtureSheets, "Owner", "Titluri_L18", "townership", "Parcel")
	output := filepath.Join(dir, "out.xlsx")

	_, err := run(t, "process", input, "--output", output)
	require.NoError(t, err)

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Tabel_Complet", "Format_Compact"}, f.GetSheetList())

	rows, err := f.GetRows("Format_Compact")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "T-100", rows[1][0])
	assert.Equal(t, "Popescu", rows[1][3])
}

func TestProcessMissingTables(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir, fixtureSheets, "Owner", "Titluri_L18")
	output := filepath.Join(dir, "out.xlsx")

	_, err := run(t, "process", input, "--output", output)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, err.Error(), "townership, Parcel")

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessRejectsAccessByDefault(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "titles.mdb")
	require.NoError(t, os.WriteFile(input, []byte("Standard Jet DB"), 0o600))

	_, err := run(t, "process", input, "--output", filepath.Join(dir, "out.xlsx"))
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
}

func TestProcessMissingFile(t *testing.T) {
	_, err := run(t, "process", filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestTablesListsRequiredTables(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir, fixtureSheets, "Owner", "Parcel")

	out, err := run(t, "tables", input)
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE")
	assert.Regexp(t, `Owner\s+3\s+1\s+true`, out)
	assert.Regexp(t, `Titluri_L18\s+-\s+-\s+missing`, out)
}

func TestExitCodeDefaultsToFailure(t *testing.T) {
	assert.Equal(t, exitFailure, exitCode(assert.AnError))
	assert.Equal(t, exitDB, exitCode(withCode(exitDB, assert.AnError)))
	assert.NoError(t, withCode(exitDB, nil))
}
