package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	log "github.com/sirupsen/logrus"
)

type AreaSummaryRenderer interface {
	RenderAreaSummary(summary AreaSummaryDTO) (string, error)
}

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

var areaSummaryHeader = []string{
	"Unit code", "Unit", "Initial", "Modified", "Certified", "Annual committed",
	"Committed", "Accrued", "Disbursed", "Paid", "Remaining", "Executed %",
}

func (t *CsvRendererImpl) RenderAreaSummary(summary AreaSummaryDTO) (string, error) {
	data := make([][]string, 0, len(summary.Units)+2)
	data = append(data, areaSummaryHeader)
	for _, unit := range summary.Units {
		data = append(data, []string{
			strconv.Itoa(unit.UnitCode),
			unit.UnitDescription,
			amount(unit.Allocation.Initial),
			amount(unit.Allocation.Modified),
			amount(unit.Allocation.Certified),
			amount(unit.Allocation.AnnualCommitted),
			amount(unit.Execution.Committed),
			amount(unit.Execution.Accrued),
			amount(unit.Execution.Disbursed),
			amount(unit.Execution.Paid),
			amount(unit.AmountRemaining),
			amount(unit.PercentageExecuted),
		})
	}
	if summary.Message != "" {
		data = append(data, []string{summary.Message})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.WriteAll(data); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
