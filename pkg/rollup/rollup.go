package rollup

import "github.com/munitrack/munitrack/pkg/budget"

// Allocations holds the year-level budget sums of a bucket.
type Allocations struct {
	Initial         float64
	Modifications   float64
	Modified        float64
	Certified       float64
	AnnualCommitted float64
}

// Executions holds the monthly execution sums of a bucket.
type Executions struct {
	Committed float64
	Accrued   float64
	Disbursed float64
	Paid      float64
}

// Rollup is the aggregate of a set of facts at any dimension level.
// Percentages are always derived from the sums, never added up.
type Rollup struct {
	Allocation Allocations
	Execution  Executions
	// AmountRemaining is Modified - Accrued, floored at zero.
	AmountRemaining     float64
	PercentageExecuted  float64
	PercentageCertified float64
	PercentageCommitted float64
}

func SumAllocations(allocations []budget.BudgetAllocation) Allocations {
	var sum Allocations
	for _, a := range allocations {
		sum.Initial += a.Initial
		sum.Modifications += a.Modifications
		sum.Modified += a.Modified
		sum.Certified += a.Certified
		sum.AnnualCommitted += a.AnnualCommitted
	}
	return sum
}

func SumExecutions(executions []budget.MonthlyExecution) Executions {
	var sum Executions
	for _, e := range executions {
		sum.Committed += e.Committed
		sum.Accrued += e.Accrued
		sum.Disbursed += e.Disbursed
		sum.Paid += e.Paid
	}
	return sum
}

func Calculate(allocations []budget.BudgetAllocation, executions []budget.MonthlyExecution) Rollup {
	return derive(SumAllocations(allocations), SumExecutions(executions))
}

// Sum builds the parent rollup of its children.
func Sum(children ...Rollup) Rollup {
	var allocations Allocations
	var executions Executions
	for _, c := range children {
		allocations.Initial += c.Allocation.Initial
		allocations.Modifications += c.Allocation.Modifications
		allocations.Modified += c.Allocation.Modified
		allocations.Certified += c.Allocation.Certified
		allocations.AnnualCommitted += c.Allocation.AnnualCommitted

		executions.Committed += c.Execution.Committed
		executions.Accrued += c.Execution.Accrued
		executions.Disbursed += c.Execution.Disbursed
		executions.Paid += c.Execution.Paid
	}
	return derive(allocations, executions)
}

// Percentage returns numerator/denominator*100, or 0 when the denominator is not positive.
// The result is not capped at 100.
func Percentage(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator * 100
}

func derive(allocations Allocations, executions Executions) Rollup {
	return Rollup{
		Allocation:          allocations,
		Execution:           executions,
		AmountRemaining:     max(0, allocations.Modified-executions.Accrued),
		PercentageExecuted:  Percentage(executions.Accrued, allocations.Modified),
		PercentageCertified: Percentage(allocations.Certified, allocations.Modified),
		PercentageCommitted: Percentage(allocations.AnnualCommitted, allocations.Modified),
	}
}
