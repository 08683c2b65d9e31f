package hierarchy

import (
	"errors"
	"net/http"

	"github.com/munitrack/munitrack/internal/rest"
	"github.com/munitrack/munitrack/pkg/budget"
	log "github.com/sirupsen/logrus"
)

type UnitDTO struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

type ClassifierDTO struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
	// CategoryInferred is true when the category comes from the code prefix instead of an explicit link.
	CategoryInferred bool `json:"categoryInferred"`
}

type Handler struct {
	resolver Resolver
}

func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// ListUnits godoc
// @Summary List executing units
// @Tags Hierarchy
// @Produce json
// @Success 200 {array} UnitDTO
// @Failure 503 {object} rest.ErrorResponse
// @Router /api/units [get]
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing executing units")
	units, err := h.resolver.ListUnits(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}
	result := make([]UnitDTO, 0, len(units))
	for _, u := range units {
		result = append(result, UnitDTO{Code: u.Code, Description: u.Description})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// ListClassifiers godoc
// @Summary List classifiers, optionally under a category code prefix
// @Tags Hierarchy
// @Produce json
// @Param category query string false "Category code prefix"
// @Success 200 {array} ClassifierDTO
// @Failure 503 {object} rest.ErrorResponse
// @Router /api/classifiers [get]
func (h *Handler) ListClassifiers(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("category")
	log.Debugf("Listing classifiers with prefix %q", prefix)

	classifiers, err := h.resolver.ListClassifiersByCategory(r.Context(), prefix)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	categorizer, err := h.resolver.Categorizer(r.Context())
	if err != nil {
		// labels degrade to the raw code prefix
		log.Warnf("categories unavailable, using code prefixes as labels: %v", err)
		categorizer = NewCategorizer(nil)
	}

	result := make([]ClassifierDTO, 0, len(classifiers))
	for _, c := range classifiers {
		category := categorizer.CategoryOf(c)
		result = append(result, ClassifierDTO{
			Code:             c.Code,
			Description:      c.Description,
			Category:         category.Description,
			CategoryInferred: !c.Category.IsExplicit(),
		})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, budget.ErrDataUnavailable) {
		rest.WriteError(w, http.StatusServiceUnavailable, "reference data unavailable", err.Error())
		return
	}
	rest.WriteError(w, http.StatusInternalServerError, "failed to load reference data", err.Error())
}
