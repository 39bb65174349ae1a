package tools

import "github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func object(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

var (
	baseIDProp  = stringProp("Base id")
	tableIDProp = stringProp("Table id or table name (e.g. customers, projects, transactions)")
	fieldsProp  = map[string]any{
		"type":        "object",
		"description": "Field name to value map. Field names must exactly match get_table_fields output.",
	}
)

var searchTool = llm.Tool{
	Name:        SearchRecords,
	Description: "Search for records in a table by free text. Matches against every field value.",
	Parameters: object(map[string]any{
		"baseId":     baseIDProp,
		"tableId":    tableIDProp,
		"searchTerm": stringProp("Text to look for"),
	}, "baseId", "tableId", "searchTerm"),
}

var searchTransactionsTool = llm.Tool{
	Name:        SearchTransactions,
	Description: "Search for existing transactions linked to both a customer and a project. Call this before creating a transaction.",
	Parameters: object(map[string]any{
		"baseId":     baseIDProp,
		"customerId": stringProp("Customer record id"),
		"projectId":  stringProp("Project record id"),
	}, "baseId", "customerId", "projectId"),
}

var getAllTool = llm.Tool{
	Name:        GetAllRecords,
	Description: "Get all records from a table",
	Parameters: object(map[string]any{
		"baseId":  baseIDProp,
		"tableId": tableIDProp,
		"maxRecords": map[string]any{
			"type":        "number",
			"description": "Maximum number of records to return",
			"default":     100,
		},
	}, "baseId", "tableId"),
}

var createTool = llm.Tool{
	Name:        CreateRecord,
	Description: "Create a new record. The user is asked to confirm before it runs.",
	Parameters: object(map[string]any{
		"baseId":  baseIDProp,
		"tableId": tableIDProp,
		"fields":  fieldsProp,
	}, "baseId", "tableId", "fields"),
}

var updateTool = llm.Tool{
	Name:        UpdateRecord,
	Description: "Update a single record. The user is asked to confirm before it runs.",
	Parameters: object(map[string]any{
		"baseId":   baseIDProp,
		"tableId":  tableIDProp,
		"recordId": stringProp("Record id, starts with rec"),
		"fields":   fieldsProp,
	}, "baseId", "tableId", "recordId", "fields"),
}

var tableFieldsTool = llm.Tool{
	Name:        GetTableFields,
	Description: "Get available fields in a table with sample values. Shows which fields look like select fields and their known options.",
	Parameters: object(map[string]any{
		"baseId":  baseIDProp,
		"tableId": tableIDProp,
	}, "baseId", "tableId"),
}

var findOfficeTool = llm.Tool{
	Name:        FindOffice,
	Description: "Find an office record based on floor number and office number within the same project",
	Parameters: object(map[string]any{
		"baseId":       baseIDProp,
		"projectId":    stringProp("Project record id"),
		"floorNumber":  map[string]any{"type": "number", "description": "Floor number"},
		"officeNumber": map[string]any{"type": "number", "description": "Office number"},
	}, "baseId", "projectId", "floorNumber", "officeNumber"),
}
