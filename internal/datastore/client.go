package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

const (
	describeSampleSize = 5
	maxSelectOptions   = 10
)

// Client is the record store as the tool gateway sees it.
type Client struct {
	backend      Backend
	tables       *Tables
	baseID       string
	transactions config.TransactionRules
	offices      config.OfficeRules
	retry        RetryPolicy
}

func NewClient(backend Backend, domain *config.Domain) *Client {
	return &Client{
		backend:      backend,
		tables:       NewTables(domain.Tables),
		baseID:       domain.BaseID,
		transactions: domain.Transactions,
		offices:      domain.Offices,
		retry:        DefaultRetryPolicy(),
	}
}

func (c *Client) Tables() *Tables {
	return c.tables
}

func (c *Client) BaseID() string {
	return c.baseID
}

func (c *Client) ref(base, table string) (TableRef, error) {
	id, err := c.tables.Resolve(table)
	if err != nil {
		return TableRef{}, err
	}
	if base == "" {
		base = c.baseID
	}
	return TableRef{Base: base, ID: id}, nil
}

type SearchResult struct {
	Found   int      `json:"found"`
	Records []Record `json:"records"`
}

// Search returns records whose serialized fields contain term,
// case-insensitively.
func (c *Client) Search(ctx context.Context, base, table, term string) (*SearchResult, error) {
	ref, err := c.ref(base, table)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	logger.Debug("searching records", "table", ref.ID, "term", term)

	records, err := c.backend.List(ctx, ref, 0)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	needle := strings.ToLower(term)
	matched := make([]Record, 0)
	for _, r := range records {
		data, err := json.Marshal(r.Fields)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(data)), needle) {
			matched = append(matched, r)
		}
	}

	return &SearchResult{Found: len(matched), Records: matched}, nil
}

type TransactionMatch struct {
	Found        int      `json:"found"`
	Transactions []Record `json:"transactions"`
}

// SearchTransactions finds transactions linked to both the customer and the
// project.
func (c *Client) SearchTransactions(ctx context.Context, base, customerID, projectID string) (*TransactionMatch, error) {
	ref, err := c.ref(base, c.tables.ID(c.transactions.Table))
	if err != nil {
		return nil, fmt.Errorf("transaction search failed: %w", err)
	}

	logger.Debug("searching transactions", "customer", customerID, "project", projectID)

	records, err := c.backend.List(ctx, ref, 0)
	if err != nil {
		return nil, fmt.Errorf("transaction search failed: %w", err)
	}

	matched := make([]Record, 0)
	for _, r := range records {
		if linksTo(r.Fields[c.transactions.CustomerField], customerID) &&
			linksTo(r.Fields[c.transactions.ProjectField], projectID) {
			matched = append(matched, r)
		}
	}

	return &TransactionMatch{Found: len(matched), Transactions: matched}, nil
}

func (c *Client) GetAll(ctx context.Context, base, table string, maxRecords int) ([]Record, error) {
	ref, err := c.ref(base, table)
	if err != nil {
		return nil, fmt.Errorf("get all records failed: %w", err)
	}

	records, err := c.backend.List(ctx, ref, maxRecords)
	if err != nil {
		return nil, fmt.Errorf("get all records failed: %w", err)
	}

	if maxRecords > 0 && len(records) > maxRecords {
		records = records[:maxRecords]
	}

	return records, nil
}

// Create inserts a record, dropping fields the backend reports as computed.
func (c *Client) Create(ctx context.Context, base, table string, fields map[string]any) (*Record, error) {
	ref, err := c.ref(base, table)
	if err != nil {
		return nil, fmt.Errorf("create record failed: %w", err)
	}

	logger.Info("creating record", "table", ref.ID, "fields", len(fields))

	rec, err := c.retry.Create(ctx, c.backend, ref, unwrapFields(fields))
	if err != nil {
		return nil, fmt.Errorf("create record failed: %w", err)
	}

	return rec, nil
}

func (c *Client) Update(ctx context.Context, base, table, recordID string, fields map[string]any) (*Record, error) {
	ref, err := c.ref(base, table)
	if err != nil {
		return nil, fmt.Errorf("update record failed: %w", err)
	}

	if err := ValidateRecordID(recordID); err != nil {
		return nil, fmt.Errorf("update record failed: %w", err)
	}

	logger.Info("updating record", "table", ref.ID, "record", recordID)

	rec, err := c.backend.Update(ctx, ref, recordID, unwrapFields(fields))
	if err != nil {
		return nil, fmt.Errorf("update record failed: %w", err)
	}

	return rec, nil
}

type FieldInfo struct {
	HasValues           bool  `json:"hasValues"`
	UniqueValues        []any `json:"uniqueValues"`
	PossibleSelectField bool  `json:"possibleSelectField"`
	SampleValue         any   `json:"sampleValue"`
}

type FieldReport struct {
	AvailableFields []string             `json:"availableFields"`
	FieldAnalysis   map[string]FieldInfo `json:"fieldAnalysis"`
	SampleRecord    map[string]any       `json:"sampleRecord"`
}

// DescribeFields samples a few records and reports which fields exist and
// which look like single-select columns.
func (c *Client) DescribeFields(ctx context.Context, base, table string) (*FieldReport, error) {
	records, err := c.GetAll(ctx, base, table, describeSampleSize)
	if err != nil {
		return nil, err
	}

	var order []string
	examples := make(map[string][]any)

	for _, r := range records {
		keys := make([]string, 0, len(r.Fields))
		for k := range r.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if _, seen := examples[k]; !seen {
				order = append(order, k)
				examples[k] = []any{}
			}

			switch v := r.Fields[k].(type) {
			case nil:
			case []any:
				examples[k] = append(examples[k], v...)
			default:
				examples[k] = append(examples[k], v)
			}
		}
	}

	report := &FieldReport{
		AvailableFields: order,
		FieldAnalysis:   make(map[string]FieldInfo, len(order)),
		SampleRecord:    map[string]any{},
	}
	if report.AvailableFields == nil {
		report.AvailableFields = []string{}
	}
	if len(records) > 0 && records[0].Fields != nil {
		report.SampleRecord = records[0].Fields
	}

	for _, field := range order {
		values := examples[field]
		unique := uniqueValues(values)

		var sample any
		if len(values) > 0 {
			sample = values[0]
		}

		report.FieldAnalysis[field] = FieldInfo{
			HasValues:           len(values) > 0,
			UniqueValues:        unique,
			PossibleSelectField: len(unique) > 1 && len(unique) <= maxSelectOptions,
			SampleValue:         sample,
		}
	}

	return report, nil
}

type Office struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// OfficeLookup holds the matched office, or every office on the floor when
// nothing matched.
type OfficeLookup struct {
	Match *Record
	Floor []Office
}

// ListOfficesOnFloor returns the project's offices on one floor.
func (c *Client) ListOfficesOnFloor(ctx context.Context, base, projectID, floor string) ([]Record, error) {
	ref, err := c.ref(base, c.tables.ID(c.offices.Table))
	if err != nil {
		return nil, fmt.Errorf("list offices failed: %w", err)
	}

	records, err := c.backend.List(ctx, ref, 0)
	if err != nil {
		return nil, fmt.Errorf("list offices failed: %w", err)
	}

	out := make([]Record, 0)
	for _, r := range records {
		if floorMatches(r.Fields[c.offices.FloorField], floor) && linksTo(r.Fields[c.offices.ProjectField], projectID) {
			out = append(out, r)
		}
	}

	logger.Debug("offices on floor", "project", projectID, "floor", floor, "count", len(out))
	return out, nil
}

func (c *Client) FindOffice(ctx context.Context, base, projectID, floor, number string) (*OfficeLookup, error) {
	offices, err := c.ListOfficesOnFloor(ctx, base, projectID, floor)
	if err != nil {
		return nil, err
	}

	want := strings.TrimSpace(number)
	lookup := &OfficeLookup{}

	for i := range offices {
		got := c.officeNumber(offices[i])
		if got == want {
			lookup.Match = &offices[i]
			return lookup, nil
		}
		lookup.Floor = append(lookup.Floor, Office{ID: offices[i].ID, Number: got})
	}

	return lookup, nil
}

func (c *Client) officeNumber(r Record) string {
	for _, field := range c.offices.NumberFields {
		v, ok := r.Fields[field]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(stringify(v)); s != "" {
			return s
		}
	}
	return ""
}

// linksTo reports whether a link field value (a single id or a list of ids)
// contains id.
func linksTo(value any, id string) bool {
	switch v := value.(type) {
	case string:
		return v == id
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == id {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if s == id {
				return true
			}
		}
	}
	return false
}

func floorMatches(value any, floor string) bool {
	if value == nil {
		return false
	}

	want := strings.TrimSpace(floor)
	got := strings.TrimSpace(stringify(value))

	wantNum, err1 := strconv.ParseFloat(want, 64)
	gotNum, err2 := strconv.ParseFloat(got, 64)
	if err1 == nil && err2 == nil {
		return wantNum == gotNum
	}

	return got == want
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func uniqueValues(values []any) []any {
	seen := make(map[string]bool, len(values))
	out := make([]any, 0, len(values))

	for _, v := range values {
		key, err := json.Marshal(v)
		if err != nil {
			key = []byte(fmt.Sprint(v))
		}
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		out = append(out, v)
	}

	return out
}

// unwrapFields strips the {"fields": {...}} nesting models sometimes add.
func unwrapFields(fields map[string]any) map[string]any {
	for len(fields) == 1 {
		inner, ok := fields["fields"].(map[string]any)
		if !ok {
			break
		}
		fields = inner
	}
	return fields
}
