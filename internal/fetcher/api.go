package fetcher

import "reservation-wizard-backend/internal/interval"

// apiRequest is the upstream availability query.
type apiRequest struct {
	Operation string `json:"operation"`
	ItemType  string `json:"itemType"`
	ItemID    any    `json:"itemId"`
}

// ApiResponse models the upstream API's response envelope. Any Status other
// than "success" is treated as an empty reservation set, never an error that
// reaches classification.
type ApiResponse struct {
	Status string               `json:"status"`
	Data   []interval.RawRecord `json:"data"`
}

// catalogRecord is one bookable resource in the upstream catalog listing.
// Ids arrive with the same loose typing as reservation records.
type catalogRecord struct {
	ID         interval.FlexID `json:"id"`
	ItemType   string          `json:"itemType"`
	Name       string          `json:"name"`
	TotalStock int             `json:"totalStock"`
}

// CatalogResponse is the envelope of the catalog listing operation.
type CatalogResponse struct {
	Status string          `json:"status"`
	Data   []catalogRecord `json:"data"`
}

const statusSuccess = "success"
