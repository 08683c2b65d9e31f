package test_utils

import (
	"database/sql"
	"testing"

	"github.com/munitrack/munitrack/pkg/budget"
)

func InsertUnit(t *testing.T, db *sql.DB, unit budget.ExecutingUnit) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO executing_unit (id, code, description) VALUES (?, ?, ?)`,
		unit.Id, unit.Code, unit.Description)
	if err != nil {
		t.Fatalf("Failed to insert unit %d: %v", unit.Code, err)
	}
}

func InsertCategory(t *testing.T, db *sql.DB, category budget.Category) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO category (id, code, description) VALUES (?, ?, ?)`,
		category.Id, category.Code, category.Description)
	if err != nil {
		t.Fatalf("Failed to insert category %s: %v", category.Code, err)
	}
}

func InsertClassifier(t *testing.T, db *sql.DB, classifier budget.Classifier) {
	t.Helper()
	var categoryId sql.NullInt64
	if classifier.Category.IsExplicit() {
		categoryId = sql.NullInt64{Int64: int64(classifier.Category.CategoryId), Valid: true}
	}
	_, err := db.Exec(`INSERT INTO classifier (id, code, description, category_id) VALUES (?, ?, ?, ?)`,
		classifier.Id, classifier.Code, classifier.Description, categoryId)
	if err != nil {
		t.Fatalf("Failed to insert classifier %s: %v", classifier.Code, err)
	}
}

func InsertAllocation(t *testing.T, db *sql.DB, a budget.BudgetAllocation) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO budget_allocation (
			year, unit_code, classifier_code,
			initial_amount, modifications_amount, modified_amount, certified_amount, annual_committed_amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Year, a.UnitCode, a.ClassifierCode, a.Initial, a.Modifications, a.Modified, a.Certified, a.AnnualCommitted)
	if err != nil {
		t.Fatalf("Failed to insert allocation: %v", err)
	}
}

func InsertExecution(t *testing.T, db *sql.DB, e budget.MonthlyExecution) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO monthly_execution (
			year, month, unit_code, classifier_code,
			committed_amount, accrued_amount, disbursed_amount, paid_amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Year, e.Month, e.UnitCode, e.ClassifierCode, e.Committed, e.Accrued, e.Disbursed, e.Paid)
	if err != nil {
		t.Fatalf("Failed to insert execution: %v", err)
	}
}
