package handlers

import (
	"fmt"
	"net/http"

	"github.com/ukpostcodes/internal/corpus"
)

const (
	defaultRadiusKm     = 10
	defaultNearestLimit = 10
)

type pointRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type nearestRequest struct {
	pointRequest
	RadiusKm *float64 `json:"radius_km" validate:"omitempty,gt=0"`
	Limit    int      `json:"limit" validate:"omitempty,gte=1"`
}

type nearby struct {
	Postcode   corpus.Record `json:"postcode"`
	DistanceKm float64       `json:"distance_km"`
}

type center struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type nearestResponse struct {
	Results      []nearby `json:"results"`
	TotalFound   int      `json:"total_found"`
	SearchCenter center   `json:"search_center"`
	RadiusKm     float64  `json:"radius_km"`
}

// Nearest lists postcodes around a point, closest first.
func (h *Handlers) Nearest(w http.ResponseWriter, r *http.Request) {
	var req nearestRequest
	if !h.decode(w, r, &req) {
		return
	}
	radius := float64(defaultRadiusKm)
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}
	if radius > h.Limits.MaxRadiusKm {
		writeValidation(w, "radius too large",
			FieldError{Field: "radius_km", Rule: "lte", Param: fmt.Sprint(h.Limits.MaxRadiusKm)})
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultNearestLimit
	}
	if req.Limit > h.Limits.MaxSearchResults {
		writeValidation(w, "limit too large", tooLarge("limit", h.Limits.MaxSearchResults))
		return
	}

	lat, lon := *req.Latitude, *req.Longitude
	results, err := h.Service.Nearest(lat, lon, radius, req.Limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	out := make([]nearby, len(results))
	for i, res := range results {
		out[i] = nearby{Postcode: res.Record, DistanceKm: res.DistanceKm}
	}
	writeJSON(w, http.StatusOK, nearestResponse{
		Results:      out,
		TotalFound:   len(out),
		SearchCenter: center{Latitude: lat, Longitude: lon},
		RadiusKm:     radius,
	})
}

// ReverseGeocode returns the closest postcode to a point.
func (h *Handlers) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Service.ReverseGeocode(*req.Latitude, *req.Longitude)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "No postcode found within search radius", "")
		return
	}
	writeJSON(w, http.StatusOK, res.Record)
}

type distanceRequest struct {
	Postcode1 string `json:"postcode1" validate:"required"`
	Postcode2 string `json:"postcode2" validate:"required"`
}

type distanceResponse struct {
	Postcode1  string   `json:"postcode1"`
	Postcode2  string   `json:"postcode2"`
	DistanceKm *float64 `json:"distance_km"`
	Error      string   `json:"error,omitempty"`
}

// Distance returns the great-circle distance between two postcodes. A
// missing postcode is reported in the body, not as an HTTP error.
func (h *Handlers) Distance(w http.ResponseWriter, r *http.Request) {
	var req distanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp := distanceResponse{Postcode1: req.Postcode1, Postcode2: req.Postcode2}

	for _, pc := range []string{req.Postcode1, req.Postcode2} {
		rec, err := h.Service.Lookup(r.Context(), pc)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		if rec == nil {
			resp.Error = "Postcode not found: " + pc
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	km, ok, err := h.Service.DistanceBetween(r.Context(), req.Postcode1, req.Postcode2)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if !ok {
		resp.Error = "Postcode has no coordinates"
	} else {
		resp.DistanceKm = &km
	}
	writeJSON(w, http.StatusOK, resp)
}
