package catalog

import "github.com/MrSnakeDoc/detailcal/internal/domain"

// File is the top-level structure of catalog.yaml.
//
//	services:
//	  - name: Full Detail
//	    duration: 3h
//	    price: 249
//	addons:
//	  - name: Tire Shine
//	    duration: 15m
//	employees:
//	  - id: emp-1
//	    name: Sam Rivera
//	    role: detailer
type File struct {
	Services  []OfferingSpec    `yaml:"services"`
	Addons    []OfferingSpec    `yaml:"addons"`
	Employees []domain.Employee `yaml:"employees"`
}

// OfferingSpec is one service or add-on as written in the file.
type OfferingSpec struct {
	Name        string  `yaml:"name"`
	Duration    string  `yaml:"duration,omitempty"` // Go duration, e.g. "90m"
	Price       float64 `yaml:"price,omitempty"`
	Description string  `yaml:"description,omitempty"`
}
