package budget

import (
	"errors"
	"fmt"
)

const (
	MinYear = 2000
	MaxYear = 2100
)

var ErrInvalidInput = errors.New("invalid input")

// ErrDataUnavailable means the fact store or a table it depends on cannot be reached. It never means "no rows".
var ErrDataUnavailable = errors.New("data unavailable")

type ExecutingUnit struct {
	Id          int
	Code        int
	Description string
}

type Category struct {
	Id          int
	Code        string
	Description string
}

// BudgetAllocation is the year-level budget of a classifier within an executing unit.
type BudgetAllocation struct {
	Year           int
	UnitCode       int
	ClassifierCode string
	Initial        float64
	Modifications  float64
	// Modified (PIM) is the initial amount plus modifications, the denominator of every execution percentage.
	Modified        float64
	Certified       float64
	AnnualCommitted float64
}

type MonthlyExecution struct {
	Year           int
	Month          int
	UnitCode       int
	ClassifierCode string
	Committed      float64
	Accrued        float64
	Disbursed      float64
	Paid           float64
}

func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: year %d is outside [%d, %d]", ErrInvalidInput, year, MinYear, MaxYear)
	}
	return nil
}

func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d is outside [1, 12]", ErrInvalidInput, month)
	}
	return nil
}
