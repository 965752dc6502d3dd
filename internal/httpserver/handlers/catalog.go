package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/detailcal/internal/catalog"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
)

type employeesResponse struct {
	Count     int               `json:"count"`
	Employees []domain.Employee `json:"employees"`
}

type matchResponse struct {
	Query      string              `json:"query"`
	Service    *catalog.Offering   `json:"service,omitempty"`
	Addon      *catalog.Offering   `json:"addon,omitempty"`
	Candidates []catalog.Candidate `json:"candidates"`
}

func Employees(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Catalog.Employees()
		if list == nil {
			list = []domain.Employee{}
		}
		writeJSON(w, d, http.StatusOK, employeesResponse{Count: len(list), Employees: list})
	}
}

// Catalog returns the services, add-ons and employees currently loaded.
func Catalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d, http.StatusOK, d.Catalog.Snapshot())
	}
}

// CatalogMatch shows how ?q= would be canonicalized on save.
func CatalogMatch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			badRequest(w, d, "q is required")
			return
		}

		resp := matchResponse{Query: q, Candidates: d.Catalog.Search(q)}
		if resp.Candidates == nil {
			resp.Candidates = []catalog.Candidate{}
		}
		if o, ok := d.Catalog.MatchService(q); ok {
			resp.Service = &o
		}
		if o, ok := d.Catalog.MatchAddon(q); ok {
			resp.Addon = &o
		}
		writeJSON(w, d, http.StatusOK, resp)
	}
}
