package budget

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateYear(t *testing.T) {
	assert.NoError(t, ValidateYear(2000))
	assert.NoError(t, ValidateYear(2100))
	assert.NoError(t, ValidateYear(2024))

	err := ValidateYear(1899)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "1899")
	assert.ErrorIs(t, ValidateYear(2101), ErrInvalidInput)
}

func TestValidateMonth(t *testing.T) {
	assert.NoError(t, ValidateMonth(1))
	assert.NoError(t, ValidateMonth(12))
	assert.ErrorIs(t, ValidateMonth(0), ErrInvalidInput)
	assert.ErrorIs(t, ValidateMonth(13), ErrInvalidInput)
}

func TestCategoryPrefix(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"2.1.1.9.1.4", "2.1"},
		{"2.3", "2.3"},
		{"2.", "2."},
		{"5", "5"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryPrefix(tt.code))
		})
	}
}

func TestNewUnlinkedClassifier(t *testing.T) {
	c := NewUnlinkedClassifier("2.6.3.2.1")

	assert.False(t, c.Category.IsExplicit())
	assert.Equal(t, "2.6", c.Category.Prefix)
	assert.Equal(t, "2.6.3.2.1", c.Code)
}

func TestClassifierMatch(t *testing.T) {
	assert.True(t, AnyClassifier().Matches("2.1.1"))
	assert.True(t, ClassifierCode("2.1.1").Matches("2.1.1"))
	assert.False(t, ClassifierCode("2.1.1").Matches("2.1.1.9"))
	assert.True(t, ClassifierPrefix("2.1").Matches("2.1.1.9"))
	assert.False(t, ClassifierPrefix("2.1").Matches("2.3.1"))
	assert.False(t, ClassifierPrefix("2.1.1").Matches("2.1"))
	assert.Equal(t, MatchAll, ClassifierPrefix("").Mode)
}
