// Package archive stores finished report outcomes in Elasticsearch so
// operators can audit what the oracle produced and how often it was corrected.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/report"
)

// Record is one archived report request.
type Record struct {
	RequestID         string                 `json:"requestId"`
	Question          string                 `json:"question"`
	State             string                 `json:"state"`
	ValidationSuccess bool                   `json:"validationSuccess"`
	ImpossibleQuery   bool                   `json:"impossibleQuery"`
	Reason            string                 `json:"reason,omitempty"`
	Attempts          int                    `json:"attempts"`
	Errors            []string               `json:"errors,omitempty"`
	Report            map[string]interface{} `json:"report"`
	CreatedAt         time.Time              `json:"createdAt"`
}

// NewRecord flattens a controller outcome.
func NewRecord(requestID, question string, outcome *report.Outcome, now time.Time) Record {
	return Record{
		RequestID:         requestID,
		Question:          question,
		State:             string(outcome.State),
		ValidationSuccess: outcome.ValidationSuccess,
		ImpossibleQuery:   outcome.ImpossibleQuery,
		Reason:            outcome.Reason,
		Attempts:          len(outcome.Attempts),
		Errors:            outcome.Errors(),
		Report:            outcome.Report(),
		CreatedAt:         now.UTC(),
	}
}

// Archiver writes records to a single index.
type Archiver struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Archiver {
	return &Archiver{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "archive", "index": index}),
	}
}

// Store indexes rec using its request id as document id.
func (a *Archiver) Store(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return commonerrors.NewArchiveFailedError(fmt.Errorf("encode record: %w", err))
	}

	res, err := a.client.Index(
		a.index,
		bytes.NewReader(body),
		a.client.Index.WithContext(ctx),
		a.client.Index.WithDocumentID(rec.RequestID),
	)
	if err != nil {
		return commonerrors.NewArchiveFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return commonerrors.NewArchiveFailedError(fmt.Errorf("index %s: %s", a.index, readError(res.Body, res.Status())))
	}

	a.logger.Debug("Report archived", map[string]interface{}{
		"requestId": rec.RequestID,
		"state":     rec.State,
	})
	return nil
}

// Recent returns the newest records first.
func (a *Archiver) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `{"query": {"match_all": {}}, "sort": [{"createdAt": {"order": "desc"}}]}`

	res, err := a.client.Search(
		a.client.Search.WithContext(ctx),
		a.client.Search.WithIndex(a.index),
		a.client.Search.WithBody(strings.NewReader(query)),
		a.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, commonerrors.NewArchiveFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, commonerrors.NewArchiveFailedError(fmt.Errorf("search %s: %s", a.index, readError(res.Body, res.Status())))
	}

	var payload struct {
		Hits struct {
			Hits []struct {
				Source Record `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, commonerrors.NewArchiveFailedError(fmt.Errorf("decode search response: %w", err))
	}

	out := make([]Record, 0, len(payload.Hits.Hits))
	for _, hit := range payload.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}

func readError(body io.Reader, status string) string {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&e); err != nil || e.Error.Reason == "" {
		return status
	}
	return e.Error.Type + ": " + e.Error.Reason
}
