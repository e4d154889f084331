package utilization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/samber/lo"
	"github.com/warp/utilization-engine/contract"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/timesheet"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// INPUT TABLES
// =============================================================================

// Tables are the three already-parsed source tables. A nil table is valid
// and means "no data available".
type Tables struct {
	Contracts  []generic.RawRow
	Timesheet  []generic.RawRow
	Allowances []generic.RawRow
}

// TablesFrom picks the three source tables out of a store snapshot.
func TablesFrom(latest map[generic.TableName][]generic.RawRow) Tables {
	return Tables{
		Contracts:  latest[generic.TableContracts],
		Timesheet:  latest[generic.TableTimesheet],
		Allowances: latest[generic.TableAllowances],
	}
}

// =============================================================================
// DATASET - normalized once, reconciled per employee
// =============================================================================

// Dataset is the normalized form of Tables under one Config. It is read-only
// after Prepare and safe for concurrent use.
type Dataset struct {
	Config     Config
	Contracts  []contract.Record
	Settled    []timesheet.Entry
	Future     []timesheet.Entry
	Allowances Allowances
	Rejected   []generic.RejectedRow
}

// Prepare validates cfg and normalizes every table. Malformed rows are
// dropped and listed in Dataset.Rejected; only an invalid config is an error.
func Prepare(tables Tables, cfg Config, logger *slog.Logger) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	titles, err := cfg.Titles()
	if err != nil {
		return nil, err
	}

	contracts, rejContracts := contract.Normalizer{Cap: cfg.EffectiveCap(), Logger: logger}.Normalize(tables.Contracts)
	entries, rejTimesheet := timesheet.Normalizer{Titles: titles, Logger: logger}.Normalize(tables.Timesheet)
	allowances, rejAllowances := NormalizeAllowances(tables.Allowances, logger)

	settled, future := timesheet.Partition(entries, cfg.Cutoff)

	ds := &Dataset{
		Config:     cfg,
		Contracts:  contracts,
		Settled:    settled,
		Future:     future,
		Allowances: allowances,
		Rejected:   append(append(rejContracts, rejTimesheet...), rejAllowances...),
	}

	logger.Debug("dataset prepared",
		"profile", cfg.Profile,
		"cutoff", cfg.Cutoff,
		"contracts", len(contracts),
		"settled", len(settled),
		"future", len(future),
		"allowances", len(allowances),
		"rejected", len(ds.Rejected),
	)
	return ds, nil
}

// Employees lists everyone with a contract or a timesheet entry, contracts
// first, each once.
func (d *Dataset) Employees() []string {
	names := contract.Employees(d.Contracts)
	names = append(names, timesheet.Employees(d.Settled)...)
	names = append(names, timesheet.Employees(d.Future)...)
	return lo.UniqBy(names, generic.NameKey)
}

// Report is the full output for one employee.
type Report struct {
	Bundle        ReportBundle
	Monthly       []timesheet.MonthTotal
	MonthlyTotals []timesheet.MonthSum
}

// Report reconciles one employee against the dataset.
func (d *Dataset) Report(employee string) Report {
	allowance, err := d.Allowances.Vacation(employee)

	bundle := Reconcile(employee, d.Contracts, d.Settled, d.Future, allowance, d.Config.Cutoff, d.Config)
	if errors.Is(err, generic.ErrReferenceDataMissing) {
		bundle.Notes = append(bundle.Notes, err.Error())
	}

	monthly := timesheet.SumByMonth(d.Settled, employee)
	return Report{
		Bundle:        bundle,
		Monthly:       monthly,
		MonthlyTotals: timesheet.MonthlyTotals(monthly),
	}
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// ComputeReport is the single-employee entry point: normalize the tables under
// cfg and reconcile the employee. The returned rejected rows cover the whole
// dataset.
func ComputeReport(employee string, tables Tables, cfg Config) (Report, []generic.RejectedRow, error) {
	ds, err := Prepare(tables, cfg, nil)
	if err != nil {
		return Report{}, nil, err
	}
	return ds.Report(employee), ds.Rejected, nil
}

// ComputeAll reconciles every employee in the dataset concurrently, bounded
// by Config.Workers. Results are in Employees() order. Reconciliation itself
// never fails; the only error is ctx being done.
func (d *Dataset) ComputeAll(ctx context.Context) ([]Report, error) {
	employees := d.Employees()
	reports := make([]Report, len(employees))

	workers := d.Config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range employees {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = d.Report(name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute all: %w", err)
	}
	return reports, nil
}
