package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/postcode"
	"github.com/ukpostcodes/internal/recognize"
	"github.com/ukpostcodes/internal/service"
)

const (
	defaultSearchLimit = 10
	defaultAreaLimit   = 100
)

// GetPostcode returns one directory record.
func (h *Handlers) GetPostcode(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.Lookup(r.Context(), mux.Vars(r)["postcode"])
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Postcode not found", "")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type searchRequest struct {
	Query string `json:"query" validate:"required,min=1,max=10"`
	Limit int    `json:"limit" validate:"omitempty,gte=1"`
}

type searchResponse struct {
	Results    []corpus.Record `json:"results"`
	TotalFound int             `json:"total_found"`
	Query      string          `json:"query"`
}

// SearchPostcodes lists postcodes by prefix, for autocomplete.
func (h *Handlers) SearchPostcodes(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultSearchLimit
	}
	if req.Limit > h.Limits.MaxSearchResults {
		writeValidation(w, "limit too large", tooLarge("limit", h.Limits.MaxSearchResults))
		return
	}

	results, err := h.Service.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results:    orEmpty(results),
		TotalFound: len(results),
		Query:      req.Query,
	})
}

type postcodesRequest struct {
	Postcodes []string `json:"postcodes" validate:"required,min=1"`
}

type bulkResponse struct {
	Results        []*corpus.Record `json:"results"`
	FoundCount     int              `json:"found_count"`
	TotalRequested int              `json:"total_requested"`
	SuccessRate    float64          `json:"success_rate"`
}

// BulkLookup looks up many postcodes at once; missing ones are null.
func (h *Handlers) BulkLookup(w http.ResponseWriter, r *http.Request) {
	var req postcodesRequest
	if !h.decode(w, r, &req) || !h.checkBulk(w, req.Postcodes) {
		return
	}

	results, err := h.Service.BulkLookup(r.Context(), req.Postcodes)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	found := 0
	for _, rec := range results {
		if rec != nil {
			found++
		}
	}
	writeJSON(w, http.StatusOK, bulkResponse{
		Results:        results,
		FoundCount:     found,
		TotalRequested: len(req.Postcodes),
		SuccessRate:    rate(found, len(req.Postcodes)),
	})
}

type validateResponse struct {
	Results        []service.Validation `json:"results"`
	TotalValid     int                  `json:"total_valid"`
	TotalChecked   int                  `json:"total_checked"`
	ValidationRate float64              `json:"validation_rate"`
}

// ValidatePostcodes checks format and directory membership.
func (h *Handlers) ValidatePostcodes(w http.ResponseWriter, r *http.Request) {
	var req postcodesRequest
	if !h.decode(w, r, &req) || !h.checkBulk(w, req.Postcodes) {
		return
	}

	results, err := h.Service.Validate(r.Context(), req.Postcodes)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	valid := 0
	for _, v := range results {
		if v.Valid {
			valid++
		}
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Results:        results,
		TotalValid:     valid,
		TotalChecked:   len(req.Postcodes),
		ValidationRate: rate(valid, len(req.Postcodes)),
	})
}

func (h *Handlers) checkBulk(w http.ResponseWriter, postcodes []string) bool {
	if len(postcodes) > h.Limits.MaxBulkRequests {
		writeValidation(w, "too many postcodes", tooLarge("postcodes", h.Limits.MaxBulkRequests))
		return false
	}
	return true
}

type parseRequest struct {
	Text             string `json:"text" validate:"required"`
	AttemptFix       bool   `json:"attempt_fix"`
	TryAllFixOptions bool   `json:"try_all_fix_options"`
}

type parseResponse struct {
	Postcodes  []recognize.Recognized `json:"postcodes"`
	TotalFound int                    `json:"total_found"`
	TextLength int                    `json:"text_length"`
}

// ParseText extracts postcodes from free text. Without attempt_fix only
// well-formed postcodes are returned. try_all_fix_options returns every
// valid correction at any fix distance, closest first, instead of the best one.
func (h *Handlers) ParseText(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Text) > h.Limits.MaxTextLength {
		writeValidation(w, "text too long", tooLarge("text", h.Limits.MaxTextLength))
		return
	}

	var found []recognize.Recognized
	switch {
	case !req.AttemptFix:
		found = h.Service.ParseTextStrict(r.Context(), req.Text)
	case req.TryAllFixOptions:
		found = h.Service.ParseText(r.Context(), req.Text, postcode.Exhaustive)
	default:
		found = h.Service.ParseText(r.Context(), req.Text, postcode.Single)
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Postcodes:  orEmpty(found),
		TotalFound: len(found),
		TextLength: len(req.Text),
	})
}

type decomposeRequest struct {
	Postcode string `json:"postcode" validate:"required"`
}

// Decompose splits a postcode into outcode, incode, area and so on.
func (h *Handlers) Decompose(w http.ResponseWriter, r *http.Request) {
	var req decomposeRequest
	if !h.decode(w, r, &req) {
		return
	}
	parsed, err := h.Service.Decompose(req.Postcode)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

type areaResponse struct {
	Results    []corpus.Record `json:"results"`
	TotalFound int             `json:"total_found"`
	AreaType   string          `json:"area_type"`
	AreaValue  string          `json:"area_value"`
}

// AreaPostcodes lists postcodes in an administrative area.
func (h *Handlers) AreaPostcodes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	area, ok := corpus.ParseAreaType(vars["area_type"])
	if !ok {
		writeValidation(w, "unknown area type",
			FieldError{Field: "area_type", Rule: "oneof", Param: areaTypeNames()})
		return
	}

	limit := defaultAreaLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeValidation(w, "limit must be a positive integer", FieldError{Field: "limit", Rule: "gte", Param: "1"})
			return
		}
		limit = n
	}
	if limit > h.Limits.MaxAreaResults {
		writeValidation(w, "limit too large", tooLarge("limit", h.Limits.MaxAreaResults))
		return
	}

	results, err := h.Service.ByArea(r.Context(), area, vars["area_value"], limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, areaResponse{
		Results:    orEmpty(results),
		TotalFound: len(results),
		AreaType:   string(area),
		AreaValue:  vars["area_value"],
	})
}

// OutcodePostcodes lists every postcode in an outcode.
func (h *Handlers) OutcodePostcodes(w http.ResponseWriter, r *http.Request) {
	results, err := h.Service.ByOutcode(r.Context(), mux.Vars(r)["outcode"])
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if len(results) == 0 {
		writeError(w, http.StatusNotFound, "No postcodes found for this outcode", "")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func areaTypeNames() string {
	var s string
	for i, a := range corpus.AreaTypes {
		if i > 0 {
			s += " "
		}
		s += string(a)
	}
	return s
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
