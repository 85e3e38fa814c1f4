package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/errors"
	"github.com/xin30hp/CryptoTaxes/ledger"
	"github.com/xin30hp/CryptoTaxes/report"
)

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Realization is the JSON form of a ledger.Realization. Numbers are decimal
// strings so no precision is lost.
type Realization struct {
	SaleDate        string `json:"sale_date"`
	Asset           string `json:"asset"`
	Quantity        string `json:"quantity"`
	AcquisitionDate string `json:"acquisition_date"`
	CostBasis       string `json:"cost_basis"`
	Proceeds        string `json:"proceeds"`
	Net             string `json:"net"`
	Term            string `json:"term"`
}

// RealizationsResponse is the response of /api/realizations and /api/merged.
type RealizationsResponse struct {
	Fiat         string        `json:"fiat"`
	Realizations []Realization `json:"realizations"`
}

// Holding is the JSON form of a resident lot.
type Holding struct {
	Asset           string `json:"asset"`
	AcquisitionDate string `json:"acquisition_date"`
	Quantity        string `json:"remaining_quantity"`
	UnitCost        string `json:"unit_cost"`
}

// HoldingsResponse is the response of /api/holdings.
type HoldingsResponse struct {
	Fiat     string    `json:"fiat"`
	Holdings []Holding `json:"holdings"`
}

// SummaryRow is the JSON form of a report.SummaryRow.
type SummaryRow struct {
	Year      int    `json:"year"`
	Asset     string `json:"asset"`
	ShortTerm string `json:"short_term"`
	LongTerm  string `json:"long_term"`
	Net       string `json:"net"`
}

// SummaryResponse is the response of /api/summary.
type SummaryResponse struct {
	Fiat string       `json:"fiat"`
	Rows []SummaryRow `json:"rows"`
}

// ErrorsResponse is the response of /api/errors.
type ErrorsResponse struct {
	Errors  []errors.ErrorJSON `json:"errors"`
	Skipped []errors.ErrorJSON `json:"skipped"`
	// Text is the plain-text report shown by the command line.
	Text string `json:"text,omitempty"`
}

// StatusResponse is the response of /api/status.
type StatusResponse struct {
	Version        string   `json:"version"`
	CommitSHA      string   `json:"commit_sha"`
	Files          []string `json:"files"`
	Policy         string   `json:"policy"`
	ForceShortTerm bool     `json:"force_short_term"`
	Suppressed     int      `json:"suppressed"`
}

func realizationsJSON(records []ledger.Realization) []Realization {
	out := make([]Realization, 0, len(records))
	for _, r := range records {
		out = append(out, Realization{
			SaleDate:        ast.FormatDate(r.SaleDate),
			Asset:           r.Asset,
			Quantity:        r.Quantity.String(),
			AcquisitionDate: ast.FormatDate(r.AcquisitionDate),
			CostBasis:       r.CostBasis.String(),
			Proceeds:        r.Proceeds.String(),
			Net:             r.Net.String(),
			Term:            r.Term.String(),
		})
	}
	return out
}

// handleGetRealizations handles GET requests to /api/realizations.
func (s *Server) handleGetRealizations(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	response := &RealizationsResponse{Fiat: s.run.Fiat, Realizations: realizationsJSON(s.run.Realizations)}
	s.mu.RUnlock()

	writeJSONResponse(w, response)
}

// handleGetMerged handles GET requests to /api/merged.
func (s *Server) handleGetMerged(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	response := &RealizationsResponse{Fiat: s.run.Fiat, Realizations: realizationsJSON(s.run.Merged)}
	s.mu.RUnlock()

	writeJSONResponse(w, response)
}

// handleGetHoldings handles GET requests to /api/holdings.
// Fully consumed lots are included.
func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holdings := make([]Holding, 0, len(s.run.Holdings))
	for _, h := range s.run.Holdings {
		holdings = append(holdings, Holding{
			Asset:           h.Asset,
			AcquisitionDate: ast.FormatDate(h.Date),
			Quantity:        h.Quantity.String(),
			UnitCost:        h.UnitCost.String(),
		})
	}

	writeJSONResponse(w, &HoldingsResponse{Fiat: s.run.Fiat, Holdings: holdings})
}

// handleGetSummary handles GET requests to /api/summary.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	fiat := s.run.Fiat
	summary := report.Summarize(s.run.Realizations)
	s.mu.RUnlock()

	rows := make([]SummaryRow, 0, len(summary))
	for _, row := range summary {
		rows = append(rows, SummaryRow{
			Year:      row.Year,
			Asset:     row.Asset,
			ShortTerm: row.ShortTerm.String(),
			LongTerm:  row.LongTerm.String(),
			Net:       row.Total().String(),
		})
	}

	writeJSONResponse(w, &SummaryResponse{Fiat: fiat, Rows: rows})
}

// handleGetErrors handles GET requests to /api/errors.
func (s *Server) handleGetErrors(w http.ResponseWriter, r *http.Request) {
	formatter := errors.NewJSONFormatter()

	s.mu.RLock()
	opts := make([]errors.TextFormatterOption, 0, len(s.sources))
	for filename, source := range s.sources {
		opts = append(opts, errors.WithSource(filename, source))
	}
	text := errors.NewTextFormatter(opts...)

	lines := make([]string, 0, len(s.skipped)+1)
	for _, skipped := range s.skipped {
		lines = append(lines, text.FormatSkipped(skipped))
	}
	if len(s.errs) > 0 {
		lines = append(lines, text.FormatAll(s.errs))
	}

	response := &ErrorsResponse{
		Errors:  formatter.FormatAllToSlice(s.errs),
		Skipped: formatter.SkippedToJSON(s.skipped),
		Text:    strings.Join(lines, "\n"),
	}
	s.mu.RUnlock()

	writeJSONResponse(w, response)
}

// handleGetStatus handles GET requests to /api/status.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	response := &StatusResponse{
		Version:        s.Version,
		CommitSHA:      s.CommitSHA,
		Files:          append([]string{}, s.files...),
		Policy:         s.config.Policy.String(),
		ForceShortTerm: s.config.ForceShortTerm,
		Suppressed:     len(s.run.Suppressed),
	}
	s.mu.RUnlock()

	writeJSONResponse(w, response)
}
