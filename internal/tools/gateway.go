package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

// Store is the subset of datastore.Client the gateway dispatches to.
type Store interface {
	Search(ctx context.Context, base, table, term string) (*datastore.SearchResult, error)
	SearchTransactions(ctx context.Context, base, customerID, projectID string) (*datastore.TransactionMatch, error)
	GetAll(ctx context.Context, base, table string, maxRecords int) ([]datastore.Record, error)
	Create(ctx context.Context, base, table string, fields map[string]any) (*datastore.Record, error)
	Update(ctx context.Context, base, table, recordID string, fields map[string]any) (*datastore.Record, error)
	DescribeFields(ctx context.Context, base, table string) (*datastore.FieldReport, error)
	FindOffice(ctx context.Context, base, projectID, floor, number string) (*datastore.OfficeLookup, error)
}

// Gateway maps tool calls to store operations. Results are rendered as the
// text the model receives; failures are returned as errors untouched.
type Gateway struct {
	store        Store
	tables       *datastore.Tables
	transactions config.TransactionRules
	registry     *Registry
}

func NewGateway(store Store, domain *config.Domain) *Gateway {
	g := &Gateway{
		store:        store,
		tables:       datastore.NewTables(domain.Tables),
		transactions: domain.Transactions,
		registry:     NewRegistry(),
	}

	g.registry.Register(searchTool, handle(g.search))
	g.registry.Register(searchTransactionsTool, handle(g.searchTransactions))
	g.registry.Register(getAllTool, handle(g.getAll))
	g.registry.Register(createTool, handle(g.create))
	g.registry.Register(updateTool, handle(g.update))
	g.registry.Register(tableFieldsTool, handle(g.tableFields))
	g.registry.Register(findOfficeTool, handle(g.findOffice))

	return g
}

func (g *Gateway) Tools() []llm.Tool {
	return g.registry.Tools()
}

func (g *Gateway) Tables() *datastore.Tables {
	return g.tables
}

// Execute runs one tool call and returns the text result.
func (g *Gateway) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	logger.Debug("tool dispatch", "tool", call.Name, "id", call.ID)
	return g.registry.Execute(ctx, call.Name, call.Arguments)
}

func handle[T Input](fn func(ctx context.Context, in T) (any, error)) Handler {
	return func(ctx context.Context, args string) (string, error) {
		in, err := decodeAs[T](args)
		if err != nil {
			return "", err
		}

		out, err := fn(ctx, in)
		if err != nil {
			return "", err
		}

		return render(out)
	}
}

func render(out any) (string, error) {
	if s, ok := out.(string); ok {
		return s, nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

func (g *Gateway) search(ctx context.Context, in SearchInput) (any, error) {
	return g.store.Search(ctx, in.BaseID, in.TableID, in.SearchTerm)
}

func (g *Gateway) searchTransactions(ctx context.Context, in SearchTransactionsInput) (any, error) {
	return g.store.SearchTransactions(ctx, in.BaseID, in.CustomerID, in.ProjectID)
}

func (g *Gateway) getAll(ctx context.Context, in GetAllInput) (any, error) {
	return g.store.GetAll(ctx, in.BaseID, in.TableID, in.MaxRecords)
}

func (g *Gateway) create(ctx context.Context, in CreateInput) (any, error) {
	if refusal := g.guardCreate(in); refusal != "" {
		logger.Warn("create refused", "table", in.TableID)
		return refusal, nil
	}
	return g.store.Create(ctx, in.BaseID, in.TableID, in.Fields)
}

func (g *Gateway) update(ctx context.Context, in UpdateInput) (any, error) {
	return g.store.Update(ctx, in.BaseID, in.TableID, in.RecordID, in.Fields)
}

func (g *Gateway) tableFields(ctx context.Context, in TableFieldsInput) (any, error) {
	return g.store.DescribeFields(ctx, in.BaseID, in.TableID)
}

func (g *Gateway) findOffice(ctx context.Context, in FindOfficeInput) (any, error) {
	lookup, err := g.store.FindOffice(ctx, in.BaseID, in.ProjectID, string(in.FloorNumber), string(in.OfficeNumber))
	if err != nil {
		return nil, err
	}

	if lookup.Match != nil {
		return lookup.Match, nil
	}

	if len(lookup.Floor) == 0 {
		return fmt.Sprintf(msgNoOfficesOnFloor, in.FloorNumber), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, msgOfficeNotFound, in.FloorNumber)
	for _, o := range lookup.Floor {
		fmt.Fprintf(&b, "- מספר: %s (ID: %s)\n", o.Number, o.ID)
	}
	b.WriteString(msgPickOffice)

	return b.String(), nil
}

// guardCreate refuses a transaction that is not linked to an office.
func (g *Gateway) guardCreate(in CreateInput) string {
	if g.transactions.OfficeField == "" {
		return ""
	}

	txTable := g.tables.ID(g.transactions.Table)
	if txTable == "" {
		return ""
	}

	id, err := g.tables.Resolve(in.TableID)
	if err != nil || id != txTable {
		return ""
	}

	if offices, ok := in.Fields[g.transactions.OfficeField].([]any); ok && len(offices) > 0 {
		return ""
	}

	return msgTransactionNeedsOffice
}
