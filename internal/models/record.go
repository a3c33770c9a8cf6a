// Package models defines core data structures for recall records, search
// requests, and search results.
package models

import "time"

// RecallRecord is one row of the recall record store. RecallSN is the unique
// identifier; every other field may be empty.
type RecallRecord struct {
	RecallSN          string    `json:"recall_sn" db:"recall_sn"`
	ProductName       string    `json:"product_name" db:"product_name"`
	BusinessName      string    `json:"business_name" db:"business_name"`
	Manufacturer      string    `json:"manufacturer" db:"manufacturer"`
	ModelName         string    `json:"model_name" db:"model_name"`
	DefectDescription string    `json:"defect_description" db:"defect_description"`
	PublicationDate   string    `json:"publication_date" db:"publication_date"`
	Category          string    `json:"category" db:"category"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// AlternativeProduct is a replacement-product suggestion for a recalled hit.
type AlternativeProduct struct {
	Title string `json:"title"`
	Brand string `json:"brand"`
	Price string `json:"price"`
	Image string `json:"image"`
	Link  string `json:"link"`
}
