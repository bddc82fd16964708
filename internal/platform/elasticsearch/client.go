// File: internal/platform/elasticsearch/client.go
package elasticsearch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campus_lostfound_backend/internal/config"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// ESClientWrapper wraps the elasticsearch.Client.
// This can help Wire disambiguate types, especially from external modules.
type ESClientWrapper struct {
	*elasticsearch.Client
	logger *zap.Logger
}

// ZapLogger is an adapter from zap.Logger to elastictransport.Logger.
type ZapLogger struct {
	logger *zap.Logger
}

var _ elastictransport.Logger = (*ZapLogger)(nil)

// LogRoundTrip prints the request-response metrics.
func (l *ZapLogger) LogRoundTrip(req *http.Request, res *http.Response, err error, start time.Time, dur time.Duration) error {
	var statusCode int
	if res != nil {
		statusCode = res.StatusCode
	}
	l.logger.Debug("Elasticsearch RoundTrip",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status_code", statusCode),
		zap.Duration("duration", dur),
		zap.Error(err),
	)
	return nil
}

func (l *ZapLogger) RequestBodyEnabled() bool  { return false }
func (l *ZapLogger) ResponseBodyEnabled() bool { return false }

// NewClient creates the Elasticsearch client. Search is optional: with no
// ELASTICSEARCH_URL it returns (nil, nil) and callers fall back to the database.
func NewClient(cfg *config.Config, logger *zap.Logger) (*ESClientWrapper, error) {
	if cfg.ElasticsearchURL == "" {
		logger.Info("ELASTICSEARCH_URL not set; item search uses the database")
		return nil, nil
	}

	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ElasticsearchURL},
		Logger:    &ZapLogger{logger: logger.Named("elasticsearch_client")},
		// Retry on 429 TooManyRequests statuses
		// Retry on 502 BadGateway, 503 ServiceUnavailable, 504 GatewayTimeout
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
		MaxRetries: 5,
	}

	esClient, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		logger.Error("Error creating Elasticsearch client", zap.Error(err))
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}

	res, err := esClient.Info()
	if err != nil {
		logger.Error("Error pinging Elasticsearch", zap.Error(err))
		return nil, fmt.Errorf("esClient.Info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		logger.Error("Elasticsearch client initialization error", zap.String("status", res.Status()), zap.String("body", errorBody(res)))
		return nil, fmt.Errorf("elasticsearch client initialization error: %s", res.Status())
	}

	logger.Info("Elasticsearch client initialized and connected successfully", zap.String("url", cfg.ElasticsearchURL), zap.String("es_version", elasticsearch.Version))
	return &ESClientWrapper{Client: esClient, logger: logger.Named("elasticsearch")}, nil
}

// errorBody reads an error response for logging.
func errorBody(res *esapi.Response) string {
	if res == nil || res.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return fmt.Sprintf("failed to read response body: %v", err)
	}
	var parsed struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil && len(parsed.Error) > 0 {
		return string(parsed.Error)
	}
	return string(raw)
}
