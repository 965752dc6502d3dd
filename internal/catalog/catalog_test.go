package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleCatalog = `---
services:
  - name: Full Detail
    duration: 3h
    price: 249
  - name: Interior Detail
    duration: 90m
  - name: Hand Wash
  - name: full detail
  - name: ""
addons:
  - name: Tire Shine
    duration: 15m
  - name: Ceramic Wax
employees:
  - id: emp-1
    name: Sam Rivera
    role: Detailer
  - id: emp-2
    name: ${DETAILCAL_TEST_OWNER}
    role: owner
  - id: emp-1
    name: Duplicate
  - name: No Id
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func loadSample(t *testing.T) Snapshot {
	t.Helper()
	t.Setenv("DETAILCAL_TEST_OWNER", "Alex Owner")
	file, err := NewLoader(writeCatalog(t, sampleCatalog)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	snap, err := Map(file)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	return snap
}

func TestLoadAndMap(t *testing.T) {
	snap := loadSample(t)

	if len(snap.Services) != 3 {
		t.Fatalf("services = %d, want 3 (blank and duplicate skipped)", len(snap.Services))
	}
	if snap.Services[0].Duration != 3*time.Hour {
		t.Errorf("Full Detail duration = %v, want 3h", snap.Services[0].Duration)
	}
	if snap.Services[2].Duration != 60*time.Minute {
		t.Errorf("Hand Wash duration = %v, want default 60m", snap.Services[2].Duration)
	}
	if len(snap.Addons) != 2 || snap.Addons[0].Kind != KindAddon {
		t.Errorf("addons = %+v", snap.Addons)
	}
	if len(snap.Employees) != 2 {
		t.Fatalf("employees = %d, want 2", len(snap.Employees))
	}
	if snap.Employees[0].Role != "detailer" {
		t.Errorf("role = %q, want lowercased", snap.Employees[0].Role)
	}
	if snap.Employees[1].Name != "Alex Owner" {
		t.Errorf("env expansion failed: %q", snap.Employees[1].Name)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/catalog.yaml").Load(); err == nil {
		t.Error("Load() with a missing file should fail")
	}
}

func TestMapRejects(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{name: "no services", file: File{Addons: []OfferingSpec{{Name: "Wax"}}}},
		{name: "bad duration", file: File{Services: []OfferingSpec{{Name: "Wash", Duration: "forever"}}}},
		{name: "negative duration", file: File{Services: []OfferingSpec{{Name: "Wash", Duration: "-1h"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Map(tt.file); err == nil {
				t.Error("Map() should fail")
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		offering  string
		wantAbove float64
		wantZero  bool
	}{
		{name: "whole name", query: "full detail", offering: "Full Detail", wantAbove: ScoreExactNameBonus},
		{name: "first word", query: "full", offering: "Full Detail", wantAbove: ScoreExactMatch},
		{name: "prefix", query: "ceram", offering: "Ceramic Wax", wantAbove: ScorePrefixMatch},
		{name: "substring", query: "tail", offering: "Full Detail", wantAbove: ScoreSubstringMatch},
		{name: "unmatched word zeroes", query: "full zzz", offering: "Full Detail", wantZero: true},
		{name: "empty query", query: "  ", offering: "Full Detail", wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.query, tt.offering)
			if tt.wantZero {
				if got != 0 {
					t.Errorf("Score(%q, %q) = %v, want 0", tt.query, tt.offering, got)
				}
				return
			}
			if got < tt.wantAbove {
				t.Errorf("Score(%q, %q) = %v, want >= %v", tt.query, tt.offering, got, tt.wantAbove)
			}
		})
	}
}

func TestCatalogMatching(t *testing.T) {
	c := New()
	c.Replace(loadSample(t))

	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{query: "full detail", want: "Full Detail", wantOK: true},
		{query: "FULL", want: "Full Detail", wantOK: true},
		{query: "interior", want: "Interior Detail", wantOK: true},
		{query: "wax", wantOK: false},
		{query: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := c.MatchService(tt.query)
		if ok != tt.wantOK || (ok && got.Name != tt.want) {
			t.Errorf("MatchService(%q) = %q, %v; want %q, %v", tt.query, got.Name, ok, tt.want, tt.wantOK)
		}
	}

	if got, ok := c.MatchAddon("wax"); !ok || got.Name != "Ceramic Wax" {
		t.Errorf("MatchAddon(wax) = %q, %v", got.Name, ok)
	}

	results := c.Search("detail")
	if len(results) != 2 {
		t.Fatalf("Search(detail) = %d results, want 2", len(results))
	}
	if results[0].Offering.Name != "Full Detail" {
		t.Errorf("ties should keep catalog order, got %q first", results[0].Offering.Name)
	}
}

func TestCatalogEmployees(t *testing.T) {
	c := New()
	if _, ok := c.Employee("emp-1"); ok {
		t.Error("empty catalog should not resolve employees")
	}

	c.Replace(loadSample(t))
	if name, ok := c.EmployeeLabel("emp-1"); !ok || name != "Sam Rivera" {
		t.Errorf("EmployeeLabel(emp-1) = %q, %v", name, ok)
	}
	if c.Count() != 5 {
		t.Errorf("Count() = %d, want 5", c.Count())
	}
	if c.LastReload().IsZero() {
		t.Error("LastReload() not set")
	}

	snap := c.Snapshot()
	snap.Services[0].Name = "mutated"
	if c.Snapshot().Services[0].Name != "Full Detail" {
		t.Error("Snapshot() must return a copy")
	}
}
