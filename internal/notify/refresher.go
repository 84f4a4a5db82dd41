package notify

import (
	"context"
	"log"
	"time"

	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/fetcher"
	"reservation-wizard-backend/internal/interval"
	"reservation-wizard-backend/internal/model"
	"reservation-wizard-backend/internal/store"
)

// CatalogClient fetches reservation sets and the upstream resource catalog.
type CatalogClient interface {
	fetcher.Client
	FetchCatalog(ctx context.Context) ([]model.Resource, error)
}

// Refresher periodically syncs the resource catalog, re-fetches availability
// for every watched resource, persists the snapshot, and dispatches a
// notification job whenever a resource's current day flips from blocked to
// open.
type Refresher struct {
	client   CatalogClient
	store    store.Store
	cls      *availability.Classifier
	pool     *WorkerPool
	interval time.Duration
	loc      *time.Location

	// last observed day status per resource id, from the previous cycle
	prev map[string]availability.DayStatus
}

// NewRefresher wires a refresher over the given fetch client and store.
func NewRefresher(client CatalogClient, s store.Store, cls *availability.Classifier, pool *WorkerPool, refreshInterval time.Duration, loc *time.Location) *Refresher {
	return &Refresher{
		client:   client,
		store:    s,
		cls:      cls,
		pool:     pool,
		interval: refreshInterval,
		loc:      loc,
		prev:     make(map[string]availability.DayStatus),
	}
}

// Run refreshes on an interval until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	log.Println("Starting watch refresher...")
	r.RefreshOnce(ctx)

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Watch refresher shutting down.")
			return
		case <-timer.C:
			r.RefreshOnce(ctx)
			timer.Reset(r.interval)
		}
	}
}

// RefreshOnce runs a single cycle: sync the catalog, then refresh every
// watched resource.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	r.syncCatalog(ctx)

	resources, err := r.store.WatchedResources(ctx)
	if err != nil {
		log.Printf("Error listing watched resources: %v", err)
		return
	}
	if len(resources) == 0 {
		return
	}
	log.Printf("Refreshing availability for %d watched resources", len(resources))

	today := time.Now().In(r.loc)
	for _, res := range resources {
		r.refreshResource(ctx, res, today)
	}
}

// syncCatalog upserts the upstream resource catalog so selection validation
// and watch registration have resources to resolve against.
func (r *Refresher) syncCatalog(ctx context.Context) {
	resources, err := r.client.FetchCatalog(ctx)
	if err != nil {
		log.Printf("Warning: catalog fetch failed: %v", err)
		return
	}
	if err := r.store.UpsertResources(ctx, resources); err != nil {
		log.Printf("Error upserting resource catalog: %v", err)
		return
	}
	if len(resources) > 0 {
		log.Printf("Synced %d catalog resources", len(resources))
	}
}

func (r *Refresher) refreshResource(ctx context.Context, res model.Resource, today time.Time) {
	q := fetcher.Query{Kind: interval.ResourceKind(res.Kind), IDs: []string{res.ID}}
	ivs, err := r.client.Fetch(ctx, q)
	if err != nil {
		log.Printf("Warning: refresh fetch failed for resource %s: %v", res.ID, err)
		return
	}

	if err := r.store.ReplaceSnapshot(ctx, q.IDs, ivs, time.Now().UTC()); err != nil {
		log.Printf("Error persisting snapshot for resource %s: %v", res.ID, err)
	}

	status := r.cls.ClassifyDay(today, selectionFor(res), ivs)
	prev, seen := r.prev[res.ID]
	r.prev[res.ID] = status

	if seen && prev != availability.DayAvailable && status == availability.DayAvailable {
		r.pool.Dispatch(Job{ResourceID: res.ID})
	}
}

// selectionFor builds the classifier selection for a single catalog resource.
func selectionFor(res model.Resource) availability.Selection {
	switch interval.ResourceKind(res.Kind) {
	case interval.KindVehicle:
		return availability.NewSelection(availability.VehicleSelection{VehicleIDs: []string{res.ID}})
	case interval.KindEquipment:
		return availability.NewSelection(availability.EquipmentSelection{
			EquipmentID: res.ID,
			TotalStock:  res.TotalStock,
		})
	default:
		return availability.NewSelection(availability.VenueSelection{VenueID: res.ID})
	}
}
