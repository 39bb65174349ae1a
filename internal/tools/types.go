package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
)

const (
	SearchRecords      = "search_airtable"
	SearchTransactions = "search_transactions"
	GetAllRecords      = "get_all_records"
	CreateRecord       = "create_record"
	UpdateRecord       = "update_record"
	GetTableFields     = "get_table_fields"
	FindOffice         = "find_office_by_floor_and_number"
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrInvalidInput = errors.New("invalid tool input")
)

type Handler func(ctx context.Context, args string) (string, error)

type Registry struct {
	tools    []llm.Tool
	handlers map[string]Handler
}

// Input is the decoded argument set of one tool call. The concrete type is
// fixed by the tool name.
type Input interface {
	Tool() string
	Validate() error
}

type SearchInput struct {
	BaseID     string `json:"baseId"`
	TableID    string `json:"tableId"`
	SearchTerm string `json:"searchTerm"`
}

type SearchTransactionsInput struct {
	BaseID     string `json:"baseId"`
	CustomerID string `json:"customerId"`
	ProjectID  string `json:"projectId"`
}

type GetAllInput struct {
	BaseID     string `json:"baseId"`
	TableID    string `json:"tableId"`
	MaxRecords int    `json:"maxRecords,omitempty"`
}

type CreateInput struct {
	BaseID  string         `json:"baseId"`
	TableID string         `json:"tableId"`
	Fields  map[string]any `json:"fields"`
}

type UpdateInput struct {
	BaseID   string         `json:"baseId"`
	TableID  string         `json:"tableId"`
	RecordID string         `json:"recordId"`
	Fields   map[string]any `json:"fields"`
}

type TableFieldsInput struct {
	BaseID  string `json:"baseId"`
	TableID string `json:"tableId"`
}

type FindOfficeInput struct {
	BaseID       string `json:"baseId"`
	ProjectID    string `json:"projectId"`
	FloorNumber  Text   `json:"floorNumber"`
	OfficeNumber Text   `json:"officeNumber"`
}

func (SearchInput) Tool() string             { return SearchRecords }
func (SearchTransactionsInput) Tool() string { return SearchTransactions }
func (GetAllInput) Tool() string             { return GetAllRecords }
func (CreateInput) Tool() string             { return CreateRecord }
func (UpdateInput) Tool() string             { return UpdateRecord }
func (TableFieldsInput) Tool() string        { return GetTableFields }
func (FindOfficeInput) Tool() string         { return FindOffice }

func (in SearchInput) Validate() error {
	return require(in.Tool(), "tableId", in.TableID, "searchTerm", in.SearchTerm)
}

func (in SearchTransactionsInput) Validate() error {
	return require(in.Tool(), "customerId", in.CustomerID, "projectId", in.ProjectID)
}

func (in GetAllInput) Validate() error {
	if in.MaxRecords < 0 {
		return fmt.Errorf("%w: %s: maxRecords must not be negative", ErrInvalidInput, in.Tool())
	}
	return require(in.Tool(), "tableId", in.TableID)
}

func (in CreateInput) Validate() error {
	if in.Fields == nil {
		return fmt.Errorf("%w: %s: fields is required", ErrInvalidInput, in.Tool())
	}
	return require(in.Tool(), "tableId", in.TableID)
}

func (in UpdateInput) Validate() error {
	if in.Fields == nil {
		return fmt.Errorf("%w: %s: fields is required", ErrInvalidInput, in.Tool())
	}
	return require(in.Tool(), "tableId", in.TableID, "recordId", in.RecordID)
}

func (in TableFieldsInput) Validate() error {
	return require(in.Tool(), "tableId", in.TableID)
}

func (in FindOfficeInput) Validate() error {
	return require(in.Tool(), "projectId", in.ProjectID, "floorNumber", string(in.FloorNumber), "officeNumber", string(in.OfficeNumber))
}

// Decode parses a tool call's JSON arguments into the input type for name.
func Decode(name, args string) (Input, error) {
	switch name {
	case SearchRecords:
		return decodeAs[SearchInput](args)
	case SearchTransactions:
		return decodeAs[SearchTransactionsInput](args)
	case GetAllRecords:
		return decodeAs[GetAllInput](args)
	case CreateRecord:
		return decodeAs[CreateInput](args)
	case UpdateRecord:
		return decodeAs[UpdateInput](args)
	case GetTableFields:
		return decodeAs[TableFieldsInput](args)
	case FindOffice:
		return decodeAs[FindOfficeInput](args)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func decodeAs[T Input](args string) (T, error) {
	var in T
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}

	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return in, fmt.Errorf("%w: %s: %v", ErrInvalidInput, in.Tool(), err)
	}

	if err := in.Validate(); err != nil {
		return in, err
	}

	return in, nil
}

// require checks name/value pairs for empty values.
func require(tool string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s: %s is required", ErrInvalidInput, tool, pairs[i])
		}
	}
	return nil
}

// Text accepts either a JSON string or a JSON number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*t = Text(n.String())
	return nil
}
