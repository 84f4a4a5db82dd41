package api

import (
	"context"
	"fmt"
	"strings"

	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/fetcher"
	"reservation-wizard-backend/internal/interval"
	"reservation-wizard-backend/internal/store"
)

// selectionParams is how a resource selection arrives over the API, either
// as query parameters or as a JSON body.
type selectionParams struct {
	Kind     string   `json:"kind" form:"kind" binding:"required"`
	IDs      []string `json:"ids" form:"ids"`
	Quantity int      `json:"quantity" form:"quantity"`
}

// buildSelection validates the params against the catalog and produces both
// the classifier selection and the upstream fetch query.
func buildSelection(ctx context.Context, s store.Store, p selectionParams) (availability.Selection, fetcher.Query, error) {
	kind := interval.ResourceKind(strings.ToLower(strings.TrimSpace(p.Kind)))
	if len(p.IDs) == 0 {
		return availability.Selection{}, fetcher.Query{}, fmt.Errorf("at least one resource id is required")
	}
	q := fetcher.Query{Kind: kind, IDs: p.IDs}

	switch kind {
	case interval.KindVenue:
		if len(p.IDs) != 1 {
			return availability.Selection{}, fetcher.Query{}, fmt.Errorf("venue selection takes exactly one id")
		}
		return availability.NewSelection(availability.VenueSelection{VenueID: p.IDs[0]}), q, nil

	case interval.KindVehicle:
		return availability.NewSelection(availability.VehicleSelection{VehicleIDs: p.IDs}), q, nil

	case interval.KindEquipment:
		if len(p.IDs) != 1 {
			return availability.Selection{}, fetcher.Query{}, fmt.Errorf("equipment selection takes exactly one id")
		}
		if p.Quantity <= 0 {
			return availability.Selection{}, fetcher.Query{}, fmt.Errorf("equipment selection requires a positive quantity")
		}
		res, err := s.GetResource(ctx, p.IDs[0])
		if err != nil {
			return availability.Selection{}, fetcher.Query{}, fmt.Errorf("unknown equipment %q", p.IDs[0])
		}
		return availability.NewSelection(availability.EquipmentSelection{
			EquipmentID: res.ID,
			Requested:   p.Quantity,
			TotalStock:  res.TotalStock,
		}), q, nil

	default:
		return availability.Selection{}, fetcher.Query{}, fmt.Errorf("unknown resource kind %q", p.Kind)
	}
}
