package bling

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/vitrinelabs/vitrine-backend/internal/catalog"
	"github.com/vitrinelabs/vitrine-backend/internal/integrations"
	"github.com/vitrinelabs/vitrine-backend/internal/inventory"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
	"github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
	"github.com/vitrinelabs/vitrine-backend/pkg/metrics"
)

// reconcileNote tags ledger movements written by catalog sync.
const reconcileNote = "Bling sync"

// syncKindProducts names the product pull in sync logs.
const syncKindProducts = "products_pull"

// DefaultPageLimit bounds one pull when the caller does not say otherwise.
const DefaultPageLimit = 100

// ProductAPI is the slice of the ERP client the importer needs.
type ProductAPI interface {
	ListProducts(ctx context.Context, page, limit int) ([]map[string]any, error)
	ProductDetail(ctx context.Context, externalID string) map[string]any
	ProductImages(ctx context.Context, externalID string) []string
	ProductImage(ctx context.Context, externalID string) *string
}

// Emitter receives incremental import feedback. The streaming endpoint
// forwards it to the client; the batch endpoint passes nil.
type Emitter interface {
	Log(message string)
	Progress(current, total int)
}

type noopEmitter struct{}

func (noopEmitter) Log(string)        {}
func (noopEmitter) Progress(int, int) {}

// Importer runs the catalog reconciliation loop: list, enrich, upsert,
// reconcile stock, one product at a time.
type Importer struct {
	api       ProductAPI
	catalog   *catalog.Service
	inventory inventory.Service
	syncLogs  integrations.SyncLogRepository
	metrics   *metrics.SyncMetrics
	logg      *logger.Logger
}

func NewImporter(
	api ProductAPI,
	catalogSvc *catalog.Service,
	inventorySvc inventory.Service,
	syncLogs integrations.SyncLogRepository,
	syncMetrics *metrics.SyncMetrics,
	logg *logger.Logger,
) *Importer {
	return &Importer{
		api:       api,
		catalog:   catalogSvc,
		inventory: inventorySvc,
		syncLogs:  syncLogs,
		metrics:   syncMetrics,
		logg:      logg,
	}
}

// Pull imports one page of the remote catalog. A failed list fetch aborts
// the run; per-item failures are collected, logged, and reflected in the
// sync log without stopping the loop. Cancellation stops further items and
// keeps what was already imported.
func (imp *Importer) Pull(ctx context.Context, page, limit int, emit Emitter) (int, error) {
	if imp.catalog == nil || imp.inventory == nil {
		return 0, errors.New(errors.CodeNotConfigured, "no persistent store configured")
	}
	if emit == nil {
		emit = noopEmitter{}
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 500 {
		limit = DefaultPageLimit
	}

	ctx = imp.logg.WithProvider(ctx, Provider)
	start := time.Now()

	records, err := imp.api.ListProducts(ctx, page, limit)
	if err != nil {
		imp.metrics.IncFailure(Provider)
		imp.recordSync(ctx, enums.SyncStatusFailed, err.Error(), 0, 0)
		return 0, err
	}

	total := len(records)
	emit.Log(fmt.Sprintf("Fetched %d products from Bling (page %d)", total, page))

	var (
		imported int
		itemErrs error
	)
	for i, raw := range records {
		if ctx.Err() != nil {
			imp.recordSync(ctx, enums.SyncStatusPartial, "cancelled", imported, total)
			return imported, ctx.Err()
		}

		record, ok := MapProduct(raw)
		if !ok {
			emit.Progress(i+1, total)
			continue
		}

		record = imp.enrich(ctx, record)

		result, err := imp.catalog.UpsertExternal(ctx, record.ExternalProduct)
		if err != nil {
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("product %s: %w", record.ExternalID, err))
			imp.logg.Error(ctx, "product upsert failed", err)
			emit.Log(fmt.Sprintf("Failed to import %s", record.ExternalID))
			emit.Progress(i+1, total)
			continue
		}

		if record.Stock != nil {
			_, err := imp.inventory.ReconcileTo(ctx, result.Product.ID, *record.Stock, enums.MovementTypeAdjust, reconcileNote)
			if err != nil {
				itemErrs = multierr.Append(itemErrs, fmt.Errorf("stock for %s: %w", record.ExternalID, err))
				imp.logg.Error(ctx, "stock reconcile failed", err)
			}
		}

		imported++
		emit.Log(fmt.Sprintf("Imported %s", result.Product.Name))
		emit.Progress(i+1, total)
	}

	status := enums.SyncStatusSuccess
	message := fmt.Sprintf("imported %d of %d", imported, total)
	if itemErrs != nil {
		status = enums.SyncStatusPartial
		message = fmt.Sprintf("imported %d of %d: %v", imported, total, itemErrs)
		if imported == 0 && total > 0 {
			status = enums.SyncStatusFailed
		}
	}
	imp.recordSync(ctx, status, message, imported, total)
	imp.metrics.ObserveDuration(Provider, time.Since(start))
	imp.metrics.AddImported(Provider, imported)

	return imported, nil
}

// enrich backfills gaps in the mapped record: first the detail payload,
// then the image fallback chain. Every step keeps already-resolved values.
func (imp *Importer) enrich(ctx context.Context, record ProductRecord) ProductRecord {
	if record.NeedsDetail() {
		if detail := imp.api.ProductDetail(ctx, record.ExternalID); detail != nil {
			if _, ok := detail["id"]; !ok {
				detail["id"] = record.ExternalID
			}
			if mapped, ok := MapProduct(detail); ok {
				record = record.Merge(mapped)
			}
		}
	}

	if record.Image == nil {
		if urls := imp.api.ProductImages(ctx, record.ExternalID); len(urls) > 0 {
			record.Image = &urls[0]
			record.Images = urls
		} else if single := imp.api.ProductImage(ctx, record.ExternalID); single != nil {
			record.Image = single
		}
	}
	return record
}

func (imp *Importer) recordSync(ctx context.Context, status enums.SyncStatus, message string, imported, total int) {
	if imp.syncLogs == nil {
		return
	}
	log := &models.SyncLog{
		Provider: Provider,
		Kind:     syncKindProducts,
		Status:   status,
		Message:  message,
		Imported: imported,
		Total:    total,
	}
	if err := imp.syncLogs.Create(ctx, log); err != nil {
		imp.logg.Warn(ctx, "could not record sync log")
	}
}
