// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// EnsureIndex creates index with the given mapping if it does not already exist.
func (c *ESClientWrapper) EnsureIndex(ctx context.Context, index string, mapping map[string]interface{}) error {
	log := c.logger.With(zap.String("index_name", index))

	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, c.Client)
	if err != nil {
		return fmt.Errorf("error checking if index %s exists: %w", index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Index already exists")
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error checking if index %s exists: status %s", index, res.Status())
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("error marshalling %s mapping to JSON: %w", index, err)
	}

	createRes, err := esapi.IndicesCreateRequest{Index: index, Body: bytes.NewReader(body)}.Do(ctx, c.Client)
	if err != nil {
		return fmt.Errorf("error creating index %s: %w", index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		log.Error("Failed to create index", zap.String("status", createRes.Status()), zap.String("error_details", errorBody(createRes)))
		return fmt.Errorf("failed to create index %s: status %s", index, createRes.Status())
	}
	log.Info("Index created successfully")
	return nil
}

// IndexDocument upserts doc under id.
func (c *ESClientWrapper) IndexDocument(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	res, err := esapi.IndexRequest{Index: index, DocumentID: id, Body: bytes.NewReader(body)}.Do(ctx, c.Client)
	if err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document %s: status %s: %s", id, res.Status(), errorBody(res))
	}
	return nil
}

// DeleteDocument removes id from index. A missing document is not an error.
func (c *ESClientWrapper) DeleteDocument(ctx context.Context, index, id string) error {
	res, err := esapi.DeleteRequest{Index: index, DocumentID: id}.Do(ctx, c.Client)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete document %s: status %s: %s", id, res.Status(), errorBody(res))
	}
	return nil
}

// SearchIDs runs query and returns the matching document ids in score order plus the total hit count.
func (c *ESClientWrapper) SearchIDs(ctx context.Context, index string, query map[string]interface{}) ([]string, int64, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("encode search query: %w", err)
	}
	res, err := c.Client.Search(
		c.Client.Search.WithContext(ctx),
		c.Client.Search.WithIndex(index),
		c.Client.Search.WithBody(bytes.NewReader(body)),
		c.Client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("search %s: status %s: %s", index, res.Status(), errorBody(res))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, parsed.Hits.Total.Value, nil
}

// BulkDocument is one entry of a bulk index request.
type BulkDocument struct {
	ID  string
	Doc interface{}
}

// BulkIndex indexes docs in one request and returns how many succeeded and failed.
func (c *ESClientWrapper) BulkIndex(ctx context.Context, index string, docs []BulkDocument, refresh string) (int, int, error) {
	if len(docs) == 0 {
		return 0, 0, nil
	}

	var body strings.Builder
	failed := 0
	for _, d := range docs {
		docJSON, err := json.Marshal(d.Doc)
		if err != nil {
			c.logger.Error("Failed to encode document for bulk request", zap.String("id", d.ID), zap.Error(err))
			failed++
			continue
		}
		fmt.Fprintf(&body, `{"index":{"_index":%q,"_id":%q}}`+"\n", index, d.ID)
		body.Write(docJSON)
		body.WriteString("\n")
	}
	if body.Len() == 0 {
		return 0, failed, nil
	}

	res, err := esapi.BulkRequest{Body: strings.NewReader(body.String()), Refresh: refresh}.Do(ctx, c.Client)
	if err != nil {
		return 0, len(docs), fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, len(docs), fmt.Errorf("bulk request: status %s: %s", res.Status(), errorBody(res))
	}

	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		return 0, len(docs), fmt.Errorf("decode bulk response: %w", err)
	}

	synced := 0
	for _, item := range bulkResponse.Items {
		if item.Index.Error != nil {
			c.logger.Error("Failed to index document in bulk batch",
				zap.String("id", item.Index.ID),
				zap.Any("error", item.Index.Error),
				zap.Int("status", item.Index.Status),
			)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}
