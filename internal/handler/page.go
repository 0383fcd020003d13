package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mpg-calculator/internal/apperror"
	"github.com/sakif/mpg-calculator/internal/auth"
	"github.com/sakif/mpg-calculator/internal/calculator"
)

// CalculatorPage is the only page served.
const CalculatorPage = calculator.PageName

// PageHandler serves the data a page needs to render itself pre-filled.
type PageHandler struct {
	allowed map[string]bool
	logger  *slog.Logger
}

// NewPageHandler creates a PageHandler that knows the calculator page.
func NewPageHandler(logger *slog.Logger) *PageHandler {
	return &PageHandler{
		allowed: map[string]bool{CalculatorPage: true},
		logger:  logger,
	}
}

// PageResponse is what a page renders from.
type PageResponse struct {
	Page string `json:"page"`
	// Source says whether CalculatorData came from the URL, the session or nowhere.
	Source         calculator.Source `json:"source"`
	CalculatorData calculator.Input  `json:"calculator_data"`
	ShareQuery     string            `json:"share_query"`
	// EstimateLabel is the financing hint under the new-car payment field.
	EstimateLabel string `json:"estimate_label,omitempty"`
	// Result is set when the selected input is complete, so the page opens
	// already evaluated.
	Result *calculator.Result `json:"result,omitempty"`
}

// HandleShow returns the pre-population data for a page.
//
// HTTP: GET /pages/{name}?c_mpg=...&miles=...
//
// A share URL's query wins over the session's saved input outright; the
// two are never mixed field by field.
func (h *PageHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.allowed[name] {
		writeError(w, apperror.NotFound("page", name))
		return
	}

	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, errors.New("session middleware not installed"))
		return
	}

	in, source := calculator.SelectInput(r.URL.Query(), session.Meta.CalculatorInput())

	resp := PageResponse{
		Page:           name,
		Source:         source,
		CalculatorData: in,
		ShareQuery:     calculator.ShareQuery(in).Encode(),
		EstimateLabel:  calculator.DefaultLoan.EstimateLabel(in.NewCar.Payment),
	}
	if in.Complete() {
		result := calculator.Compare(in)
		resp.Result = &result
	}

	h.logger.Debug("page prepared",
		slog.String("page", name),
		slog.String("session_id", session.ID),
		slog.String("source", string(source)),
	)
	writeJSON(w, http.StatusOK, resp)
}
