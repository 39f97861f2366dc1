package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"example.com/coldchain/config"
	"example.com/coldchain/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
)

// ElasticClient provides measurement indexing for dashboard search
type ElasticClient struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticsearchConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		index:  cfg.Index,
	}, nil
}

// IndexMeasurement indexes a classified measurement together with its sensor
// context. Indexing is best effort and runs after the ingestion transaction
// has committed.
func (c *ElasticClient) IndexMeasurement(ctx context.Context, measurement *models.Measurement, sensor *models.Sensor) error {
	doc := map[string]interface{}{
		"id":            measurement.ID.String(),
		"sensor_id":     sensor.ID.String(),
		"sensor_name":   sensor.Name,
		"serial_number": sensor.SerialNumber,
		"location":      sensor.Location,
		"temperature":   measurement.Temperature,
		"humidity":      measurement.Humidity,
		"status":        measurement.Status,
		"recorded_at":   measurement.RecordedAt,
		"received_at":   measurement.ReceivedAt,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal measurement document")
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: measurement.ID.String(),
		Body:       bytes.NewReader(docJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to index measurement")
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch returned %s: %s", res.Status(), string(body))
	}
	return nil
}
