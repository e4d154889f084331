package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/utilization-engine/generic"
	"github.com/xuri/excelize/v2"
)

const timesheetCSV = "\xEF\xBB\xBFEmployee Full Name,Date,Utilization Category,Project No - Title,Sum of Hours\n" +
	"Jane Doe,2026-01-05,Project,1042 - Client Build,7.5\n" +
	",,,,\n" +
	"Jane Doe,2026-01-09,Budget PTO,PTO Vacation,5\n"

func TestReadTable_CSV(t *testing.T) {
	table, err := ReadTable(generic.TableTimesheet, strings.NewReader(timesheetCSV), "export.csv")
	require.NoError(t, err)

	assert.Equal(t, generic.TableTimesheet, table.Name)
	require.Len(t, table.Rows, 2, "blank row skipped")
	assert.Equal(t, "Jane Doe", table.Rows[0]["Employee Full Name"], "BOM stripped from first header")
	assert.Equal(t, "PTO Vacation", table.Rows[1]["Project No - Title"])
	assert.Equal(t, "5", table.Rows[1]["Sum of Hours"])
}

func TestReadTable_CSV_Empty(t *testing.T) {
	_, err := ReadTable(generic.TableContracts, strings.NewReader("  \n"), "empty.csv")
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestReadTable_XLSX(t *testing.T) {
	// GIVEN: a workbook with a header, a short row and a blank row
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Full Name", "Legal Office", "Working Hrs", "Start", "End"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Jane Doe", "Toronto", "37.5", "2026-01-05", "2026-12-31"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"John Roe", "Vancouver", "40", "2025-01-01"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	// WHEN: reading it as the contracts table
	table, err := ReadTable(generic.TableContracts, bytes.NewReader(buf.Bytes()), "userfig.xlsx")

	// THEN: two rows, the short one padded
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Jane Doe", table.Rows[0]["Full Name"])
	assert.Equal(t, "37.5", table.Rows[0]["Working Hrs"])
	end, ok := table.Rows[1]["End"]
	assert.True(t, ok)
	assert.Equal(t, "", end)
}

func TestReadTable_UnsupportedFormat(t *testing.T) {
	_, err := ReadTable(generic.TableContracts, strings.NewReader("x"), "contracts.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.csv":  FormatCSV,
		"A.CSV":  FormatCSV,
		"b.xlsx": FormatXLSX,
		"c.xlsm": FormatXLSX,
	}
	for name, want := range tests {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowances.csv")
	require.NoError(t, os.WriteFile(path, []byte("Full Name,Vacation Allowance\nJane Doe,75\n"), 0o600))

	table, err := ReadFile(generic.TableAllowances, path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "75", table.Rows[0]["Vacation Allowance"])

	_, err = ReadFile(generic.TableAllowances, filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
