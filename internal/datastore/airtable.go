package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

const (
	defaultAirtableURL = "https://api.airtable.com"
	airtablePageSize   = 100
	airtableRetries    = 3
)

// Airtable is a Backend over the Airtable REST API.
type Airtable struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

func NewAirtable(apiKey, baseURL string) *Airtable {
	if baseURL == "" {
		baseURL = defaultAirtableURL
	}

	return &Airtable{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: time.Second,
	}
}

type airtableRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type airtableListResponse struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset"`
}

type airtableWriteRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast"`
}

type airtableErrorResponse struct {
	Error json.RawMessage `json:"error"`
}

func (a *Airtable) List(ctx context.Context, table TableRef, maxRecords int) ([]Record, error) {
	var out []Record
	offset := ""

	for {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(airtablePageSize))
		if maxRecords > 0 {
			q.Set("maxRecords", strconv.Itoa(maxRecords))
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		var page airtableListResponse
		if err := a.do(ctx, http.MethodGet, a.tableURL(table)+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}

		for _, r := range page.Records {
			out = append(out, Record{ID: r.ID, Fields: r.Fields})
		}

		if page.Offset == "" || (maxRecords > 0 && len(out) >= maxRecords) {
			break
		}
		offset = page.Offset
	}

	logger.Debug("airtable list", "table", table.ID, "records", len(out))
	return out, nil
}

func (a *Airtable) Create(ctx context.Context, table TableRef, fields map[string]any) (*Record, error) {
	var rec airtableRecord
	body := airtableWriteRequest{Fields: fields, Typecast: true}
	if err := a.do(ctx, http.MethodPost, a.tableURL(table), body, &rec); err != nil {
		return nil, err
	}
	return &Record{ID: rec.ID, Fields: rec.Fields}, nil
}

func (a *Airtable) Update(ctx context.Context, table TableRef, recordID string, fields map[string]any) (*Record, error) {
	var rec airtableRecord
	body := airtableWriteRequest{Fields: fields, Typecast: true}
	if err := a.do(ctx, http.MethodPatch, a.tableURL(table)+"/"+url.PathEscape(recordID), body, &rec); err != nil {
		return nil, err
	}
	return &Record{ID: rec.ID, Fields: rec.Fields}, nil
}

func (a *Airtable) tableURL(table TableRef) string {
	return fmt.Sprintf("%s/v0/%s/%s", a.baseURL, url.PathEscape(table.Base), url.PathEscape(table.ID))
}

func (a *Airtable) do(ctx context.Context, method, endpoint string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt < airtableRetries; attempt++ {
		if attempt > 0 {
			delay := a.retryDelay * time.Duration(1<<(attempt-1))
			logger.Warn("airtable rate limited, retrying", "attempt", attempt+1, "delay", delay)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		status, body, err := a.send(ctx, method, endpoint, payload)
		if err != nil {
			return err
		}

		if status >= 200 && status < 300 {
			if out == nil {
				return nil
			}
			return json.Unmarshal(body, out)
		}

		lastErr = parseAirtableError(status, body)
		if status != http.StatusTooManyRequests && status != http.StatusServiceUnavailable {
			return lastErr
		}
	}

	return lastErr
}

func (a *Airtable) send(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// parseAirtableError handles both error shapes the API returns:
// {"error": "NOT_FOUND"} and {"error": {"type": "...", "message": "..."}}.
func parseAirtableError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: string(body)}

	var resp airtableErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Error) == 0 {
		return apiErr
	}

	var code string
	if err := json.Unmarshal(resp.Error, &code); err == nil {
		apiErr.Type = code
		apiErr.Message = code
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Error, &detail); err == nil {
		apiErr.Type = detail.Type
		if detail.Message != "" {
			apiErr.Message = detail.Message
		}
	}

	return apiErr
}
