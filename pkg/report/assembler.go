package report

import (
	"math"
	"time"

	"github.com/munitrack/munitrack/internal/utils"
	"github.com/munitrack/munitrack/pkg/rollup"
)

type AllocationDTO struct {
	Initial         float64 `json:"initial"`
	Modifications   float64 `json:"modifications"`
	Modified        float64 `json:"modified"`
	Certified       float64 `json:"certified"`
	AnnualCommitted float64 `json:"annualCommitted"`
}

type ExecutionDTO struct {
	Committed float64 `json:"committed"`
	Accrued   float64 `json:"accrued"`
	Disbursed float64 `json:"disbursed"`
	Paid      float64 `json:"paid"`
}

type UnitSummaryDTO struct {
	UnitCode           int           `json:"unitCode"`
	UnitDescription    string        `json:"unitDescription"`
	Allocation         AllocationDTO `json:"allocation"`
	Execution          ExecutionDTO  `json:"execution"`
	AmountRemaining    float64       `json:"amountRemaining"`
	PercentageExecuted float64       `json:"percentageExecuted"`
}

type AreaSummaryDTO struct {
	Year             int              `json:"year"`
	Units            []UnitSummaryDTO `json:"units"`
	Message          string           `json:"message,omitempty"`
	DegradedSections []string         `json:"degradedSections,omitempty"`
	OmittedUnits     []int            `json:"omittedUnits,omitempty"`
	// Cached is true when the summary was served from the result cache.
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type TotalsDTO struct {
	AllocationDTO
	ExecutionDTO
	AmountRemaining    float64 `json:"amountRemaining"`
	PercentageExecuted float64 `json:"percentageExecuted"`
}

type MonthDTO struct {
	Month     int     `json:"month"`
	Accrued   float64 `json:"accrued"`
	Disbursed float64 `json:"disbursed"`
	Paid      float64 `json:"paid"`
}

type CategoryDTO struct {
	Code               string  `json:"code"`
	Description        string  `json:"description"`
	Modified           float64 `json:"modified"`
	Accrued            float64 `json:"accrued"`
	AmountRemaining    float64 `json:"amountRemaining"`
	PercentageExecuted float64 `json:"percentageExecuted"`
}

type GlobalSummaryDTO struct {
	Year             int           `json:"year"`
	Totals           TotalsDTO     `json:"totals"`
	ByMonth          []MonthDTO    `json:"byMonth"`
	ByCategory       []CategoryDTO `json:"byCategory"`
	Message          string        `json:"message,omitempty"`
	DegradedSections []string      `json:"degradedSections,omitempty"`
	GeneratedAt      time.Time     `json:"generatedAt"`
}

type UnitDTO struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

type FiltersDTO struct {
	Unit       *int   `json:"unit"`
	Classifier string `json:"classifier,omitempty"`
}

type DetailedTotalsDTO struct {
	Pim                 float64 `json:"pim"`
	Certified           float64 `json:"certified"`
	Committed           float64 `json:"committed"`
	Accrued             float64 `json:"accrued"`
	PercentageCertified float64 `json:"percentageCertified"`
	PercentageCommitted float64 `json:"percentageCommitted"`
	PercentageExecuted  float64 `json:"percentageExecuted"`
}

type ClassifierDetailDTO struct {
	Code              string  `json:"code"`
	Description       string  `json:"description"`
	Pim               float64 `json:"pim"`
	Certified         float64 `json:"certified"`
	Committed         float64 `json:"committed"`
	AccruedTotal      float64 `json:"accruedTotal"`
	AccruedMonth1     float64 `json:"accruedMonth1"`
	AccruedMonth2     float64 `json:"accruedMonth2"`
	AccruedMonth3     float64 `json:"accruedMonth3"`
	RemainingToAccrue float64 `json:"remainingToAccrue"`
}

type DetailedReportDTO struct {
	Year               int                   `json:"year"`
	Filters            FiltersDTO            `json:"filters"`
	Unit               *UnitDTO              `json:"unit"`
	Totals             DetailedTotalsDTO     `json:"totals"`
	ByMonth            []MonthDTO            `json:"byMonth"`
	ByClassifier       []ClassifierDetailDTO `json:"byClassifier"`
	Message            string                `json:"message,omitempty"`
	DegradedSections   []string              `json:"degradedSections,omitempty"`
	OmittedClassifiers []string              `json:"omittedClassifiers,omitempty"`
	GeneratedAt        time.Time             `json:"generatedAt"`
}

// Assembler shapes engine results for callers. Rounding to cents happens here and nowhere else.
type Assembler struct {
	clock utils.Clock
}

func NewAssembler(clock utils.Clock) *Assembler {
	return &Assembler{clock: clock}
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func allocationDTO(a rollup.Allocations) AllocationDTO {
	return AllocationDTO{
		Initial:         round2(a.Initial),
		Modifications:   round2(a.Modifications),
		Modified:        round2(a.Modified),
		Certified:       round2(a.Certified),
		AnnualCommitted: round2(a.AnnualCommitted),
	}
}

func executionDTO(e rollup.Executions) ExecutionDTO {
	return ExecutionDTO{
		Committed: round2(e.Committed),
		Accrued:   round2(e.Accrued),
		Disbursed: round2(e.Disbursed),
		Paid:      round2(e.Paid),
	}
}

func monthDTOs(months []MonthRollup) []MonthDTO {
	result := make([]MonthDTO, 0, len(months))
	for _, m := range months {
		result = append(result, MonthDTO{
			Month:     m.Month,
			Accrued:   round2(m.Execution.Accrued),
			Disbursed: round2(m.Execution.Disbursed),
			Paid:      round2(m.Execution.Paid),
		})
	}
	return result
}

func (a *Assembler) AreaSummary(summary AreaSummary) AreaSummaryDTO {
	dto := AreaSummaryDTO{
		Year:             summary.Year,
		Units:            make([]UnitSummaryDTO, 0, len(summary.Units)),
		DegradedSections: summary.DegradedSections,
		OmittedUnits:     summary.OmittedUnits,
		GeneratedAt:      a.clock.Now(),
	}
	if summary.NoData {
		dto.Message = MessageNoData
	}
	for _, u := range summary.Units {
		dto.Units = append(dto.Units, UnitSummaryDTO{
			UnitCode:           u.Unit.Code,
			UnitDescription:    u.Unit.Description,
			Allocation:         allocationDTO(u.Rollup.Allocation),
			Execution:          executionDTO(u.Rollup.Execution),
			AmountRemaining:    round2(u.Rollup.AmountRemaining),
			PercentageExecuted: round2(u.Rollup.PercentageExecuted),
		})
	}
	return dto
}

func (a *Assembler) GlobalSummary(summary GlobalSummary) GlobalSummaryDTO {
	dto := GlobalSummaryDTO{
		Year: summary.Year,
		Totals: TotalsDTO{
			AllocationDTO:      allocationDTO(summary.Totals.Allocation),
			ExecutionDTO:       executionDTO(summary.Totals.Execution),
			AmountRemaining:    round2(summary.Totals.AmountRemaining),
			PercentageExecuted: round2(summary.Totals.PercentageExecuted),
		},
		ByMonth:          monthDTOs(summary.ByMonth),
		ByCategory:       make([]CategoryDTO, 0, len(summary.ByCategory)),
		DegradedSections: summary.DegradedSections,
		GeneratedAt:      a.clock.Now(),
	}
	if summary.NoData {
		dto.Message = MessageNoData
	}
	for _, c := range summary.ByCategory {
		dto.ByCategory = append(dto.ByCategory, CategoryDTO{
			Code:               c.Category.Code,
			Description:        c.Category.Description,
			Modified:           round2(c.Rollup.Allocation.Modified),
			Accrued:            round2(c.Rollup.Execution.Accrued),
			AmountRemaining:    round2(c.Rollup.AmountRemaining),
			PercentageExecuted: round2(c.Rollup.PercentageExecuted),
		})
	}
	return dto
}

func (a *Assembler) DetailedReport(report DetailedReport) DetailedReportDTO {
	totals := report.Totals
	dto := DetailedReportDTO{
		Year: report.Query.Year,
		Filters: FiltersDTO{
			Unit:       report.Query.Unit,
			Classifier: report.Query.ClassifierPrefix,
		},
		Totals: DetailedTotalsDTO{
			Pim:                 round2(totals.Allocation.Modified),
			Certified:           round2(totals.Allocation.Certified),
			Committed:           round2(totals.Allocation.AnnualCommitted),
			Accrued:             round2(totals.Execution.Accrued),
			PercentageCertified: round2(totals.PercentageCertified),
			PercentageCommitted: round2(totals.PercentageCommitted),
			PercentageExecuted:  round2(totals.PercentageExecuted),
		},
		ByMonth:            monthDTOs(report.ByMonth),
		ByClassifier:       make([]ClassifierDetailDTO, 0, len(report.ByClassifier)),
		Message:            report.Message,
		DegradedSections:   report.DegradedSections,
		OmittedClassifiers: report.OmittedClassifiers,
		GeneratedAt:        a.clock.Now(),
	}
	if report.Unit != nil {
		dto.Unit = &UnitDTO{Code: report.Unit.Code, Description: report.Unit.Description}
	}
	for _, c := range report.ByClassifier {
		dto.ByClassifier = append(dto.ByClassifier, ClassifierDetailDTO{
			Code:              c.Code,
			Description:       c.Description,
			Pim:               round2(c.Allocation.Modified),
			Certified:         round2(c.Allocation.Certified),
			Committed:         round2(c.Allocation.AnnualCommitted),
			AccruedTotal:      round2(c.AccruedTotal),
			AccruedMonth1:     round2(c.AccruedByMonth[0]),
			AccruedMonth2:     round2(c.AccruedByMonth[1]),
			AccruedMonth3:     round2(c.AccruedByMonth[2]),
			RemainingToAccrue: round2(c.RemainingToAccrue),
		})
	}
	return dto
}
