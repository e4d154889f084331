package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/utilization"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadProfile_PresetAndCutoff(t *testing.T) {
	resetViper(t)
	viper.Set("profile.preset", "part-time")
	viper.Set("profile.cutoff", "2026-01-12")

	cfg, err := loadProfile()
	require.NoError(t, err)
	assert.Equal(t, "part-time", cfg.Profile)
	assert.Equal(t, "2026-01-12", cfg.Cutoff.String())
	assert.Equal(t, "22.5", cfg.SickCapHours.String())
}

func TestLoadProfile_InlineConfigFromFile(t *testing.T) {
	// GIVEN: a YAML config overriding the PD cap of the standard preset
	resetViper(t)
	path := filepath.Join(t.TempDir(), "utilization.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profile:
  preset: standard
  config:
    id: fy2026
    pd_cap_hours: 24
    title_aliases:
      Holiday - Company: PTO Office Closed
`), 0o600))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	// WHEN: loading the profile
	cfg, err := loadProfile()

	// THEN: the inline values win, the rest comes from the preset
	require.NoError(t, err)
	assert.Equal(t, "fy2026", cfg.Profile)
	assert.Equal(t, "24", cfg.PDCapHours.String())
	assert.Equal(t, "37.5", cfg.SickCapHours.String())
	assert.Equal(t, utilization.DefaultPTOPeriodExclusionSet, cfg.PTOPeriodExclusionSet)
	assert.True(t, cfg.Cutoff.IsZero())
}

func TestLoadProfile_Errors(t *testing.T) {
	resetViper(t)
	viper.Set("profile.preset", "nope")
	_, err := loadProfile()
	assert.Error(t, err)

	viper.Set("profile.preset", "standard")
	viper.Set("profile.cutoff", "next week")
	_, err = loadProfile()
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	resetViper(t)
	viper.Set("logging.level", "debug")
	viper.Set("logging.format", "json")
	assert.NoError(t, setupLogging())

	viper.Set("logging.level", "loud")
	assert.Error(t, setupLogging())

	viper.Set("logging.level", "info")
	viper.Set("logging.format", "xml")
	assert.Error(t, setupLogging())
}

func janeDoeTables() utilization.Tables {
	return utilization.Tables{
		Contracts: []generic.RawRow{
			{"Full Name": "Jane Doe", "Legal Office": "Toronto", "Working Hrs": "37.5", "Start": "2026-01-05"},
		},
		Timesheet: []generic.RawRow{
			{"Employee Full Name": "Jane Doe", "Date": "2026-01-05", "Utilization Category": "Project", "Project No - Title": "1042 - Client Build", "Sum of Hours": "20"},
			{"Employee Full Name": "Jane Doe", "Date": "2026-01-09", "Utilization Category": "Budget PTO", "Project No - Title": "PTO Vacation", "Sum of Hours": "5"},
		},
		Allowances: []generic.RawRow{{"Full Name": "Jane Doe", "Vacation Allowance": "75"}},
	}
}

func TestWriteReportsText(t *testing.T) {
	cfg := utilization.DefaultConfig().WithCutoff(calendar.MustParseDate("2026-01-12"))
	report, _, err := utilization.ComputeReport("Jane Doe", janeDoeTables(), cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeReportsText(&buf, []utilization.Report{report}, cfg)
	out := buf.String()

	assert.Contains(t, out, "Profile standard (v1), cutoff 2026-01-12")
	assert.Contains(t, out, "Jane Doe (Toronto)")
	assert.Contains(t, out, "37.50")
	assert.Contains(t, out, "70.00")
	assert.Contains(t, out, "61.5%")
}

func TestWriteReportsJSON(t *testing.T) {
	cfg := utilization.DefaultConfig().WithCutoff(calendar.MustParseDate("2026-01-12"))
	report, _, err := utilization.ComputeReport("Jane Doe", janeDoeTables(), cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeReportsJSON(&buf, []utilization.Report{report}, cfg.Profile))
	assert.Contains(t, buf.String(), `"vacation_remaining": 70`)
	assert.Contains(t, buf.String(), `"profile": "standard"`)
}

func TestWriteRejectedText(t *testing.T) {
	var buf bytes.Buffer
	writeRejectedText(&buf, []generic.RejectedRow{{
		Table: generic.TableTimesheet,
		Row:   3,
		Err:   &generic.DataFormatError{Table: generic.TableTimesheet, Row: 3, Column: "Date", Value: "soon", Reason: "unparsable date"},
	}})
	assert.Contains(t, buf.String(), "1 rejected rows")
	assert.Contains(t, buf.String(), "timesheet row 3")
}
