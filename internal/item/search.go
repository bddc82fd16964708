// File: internal/item/search.go
package item

import (
	"context"
	"fmt"
	"strings"

	platformES "campus_lostfound_backend/internal/platform/elasticsearch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IndexName is the Elasticsearch index holding item documents.
const IndexName = "items"

// SearchIndex is the full-text side of the catalog.
type SearchIndex interface {
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]uuid.UUID, int64, error)
}

type esSearchIndex struct {
	client *platformES.ESClientWrapper
}

// NewSearchIndex returns nil when Elasticsearch is not configured.
func NewSearchIndex(client *platformES.ESClientWrapper) SearchIndex {
	if client == nil {
		return nil
	}
	return &esSearchIndex{client: client}
}

func itemsMapping() map[string]interface{} {
	keyword := map[string]interface{}{"type": "keyword"}
	text := map[string]interface{}{"type": "text"}
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"kind":            keyword,
				"title":           text,
				"description":     text,
				"category":        text,
				"sub_category":    text,
				"category_slug":   keyword,
				"location":        text,
				"status":          keyword,
				"approval_status": keyword,
				"reporter_id":     keyword,
				"occurred_on":     map[string]interface{}{"type": "date"},
				"created_at":      map[string]interface{}{"type": "date"},
			},
		},
	}
}

// ToDocument converts an item to its Elasticsearch document.
func ToDocument(it *Item) map[string]interface{} {
	doc := map[string]interface{}{
		"kind":            string(it.Kind),
		"title":           it.Title,
		"description":     it.Description,
		"category":        it.Category,
		"sub_category":    it.SubCategory,
		"category_slug":   it.CategorySlug,
		"location":        it.Location,
		"status":          string(it.Status),
		"approval_status": string(it.ApprovalStatus),
		"reporter_id":     it.ReporterID.String(),
		"created_at":      it.CreatedAt,
	}
	if it.OccurredOn != nil {
		doc["occurred_on"] = it.OccurredOn.Format("2006-01-02")
	}
	return doc
}

func (s *esSearchIndex) EnsureIndex(ctx context.Context) error {
	return s.client.EnsureIndex(ctx, IndexName, itemsMapping())
}

func (s *esSearchIndex) Index(ctx context.Context, it *Item) error {
	return s.client.IndexDocument(ctx, IndexName, it.ID.String(), ToDocument(it))
}

func (s *esSearchIndex) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.DeleteDocument(ctx, IndexName, id.String())
}

func buildSearchQuery(filter BrowseFilter, page, pageSize int) map[string]interface{} {
	var filters []interface{}
	term := func(field, value string) {
		if value != "" {
			filters = append(filters, map[string]interface{}{"term": map[string]interface{}{field: value}})
		}
	}
	term("kind", string(filter.Kind))
	term("status", string(filter.Status))
	term("approval_status", string(filter.ApprovalStatus))
	term("category_slug", filter.CategorySlug)
	if filter.ReporterID != nil {
		term("reporter_id", filter.ReporterID.String())
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if q := strings.TrimSpace(filter.Query); q != "" {
		boolQuery["must"] = []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":     q,
					"fields":    []string{"title^3", "description", "category^2", "sub_category", "location"},
					"fuzziness": "AUTO",
				},
			},
		}
	}

	from := (page - 1) * pageSize
	if from < 0 {
		from = 0
	}
	return map[string]interface{}{
		"from":    from,
		"size":    pageSize,
		"_source": false,
		"query":   map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

func (s *esSearchIndex) Search(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]uuid.UUID, int64, error) {
	rawIDs, total, err := s.client.SearchIDs(ctx, IndexName, buildSearchQuery(filter, page, pageSize))
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("unexpected document id %q in %s index", raw, IndexName)
		}
		ids = append(ids, id)
	}
	return ids, total, nil
}

// SyncAll re-indexes every item in batches. It returns the number of documents indexed and failed.
func SyncAll(ctx context.Context, repo Repository, client *platformES.ESClientWrapper, batchSize int, refresh string, logger *zap.Logger) (int, int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	logger.Info("Starting item synchronization to Elasticsearch...", zap.Int("batchSize", batchSize), zap.String("refresh", refresh))

	totalSynced, totalFailed := 0, 0
	for offset, batch := 0, 1; ; batch++ {
		items, err := repo.FindAllForSync(ctx, offset, batchSize)
		if err != nil {
			return totalSynced, totalFailed, fmt.Errorf("failed to fetch batch %d: %w", batch, err)
		}
		if len(items) == 0 {
			break
		}

		docs := make([]platformES.BulkDocument, 0, len(items))
		for i := range items {
			docs = append(docs, platformES.BulkDocument{ID: items[i].ID.String(), Doc: ToDocument(&items[i])})
		}
		synced, failed, err := client.BulkIndex(ctx, IndexName, docs, refresh)
		if err != nil {
			logger.Error("Bulk request failed", zap.Error(err), zap.Int("batchNumber", batch))
		}
		totalSynced += synced
		totalFailed += failed
		logger.Info("Batch processed.", zap.Int("batchNumber", batch), zap.Int("syncedInBatch", synced), zap.Int("failedInBatch", failed))

		offset += len(items)
	}

	logger.Info("Item synchronization finished.", zap.Int("synced", totalSynced), zap.Int("failed", totalFailed))
	if totalFailed > 0 {
		return totalSynced, totalFailed, fmt.Errorf("%d items failed to sync", totalFailed)
	}
	return totalSynced, totalFailed, nil
}
