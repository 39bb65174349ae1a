package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Domain describes the tables the bot works against and the text heuristics
// used by the confirmation gate. Every field has a built-in default, so the
// YAML file only needs the values it changes.
type Domain struct {
	BaseID       string           `yaml:"base_id"`
	Tables       []TableDef       `yaml:"tables"`
	Transactions TransactionRules `yaml:"transactions"`
	Offices      OfficeRules      `yaml:"offices"`
	Keywords     Keywords         `yaml:"keywords"`
}

type TableDef struct {
	Key string `yaml:"key"`
	ID  string `yaml:"id"`
	// Name is the singular display name used in confirmation summaries
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type TransactionRules struct {
	Table         string `yaml:"table"`
	CustomerField string `yaml:"customer_field"`
	ProjectField  string `yaml:"project_field"`
	// OfficeField must hold at least one linked office before a transaction
	// can be created
	OfficeField string `yaml:"office_field"`
}

type OfficeRules struct {
	Table        string   `yaml:"table"`
	FloorField   string   `yaml:"floor_field"`
	ProjectField string   `yaml:"project_field"`
	NumberFields []string `yaml:"number_fields"`
}

type Keywords struct {
	Affirmative []string `yaml:"affirmative"`
	Negative    []string `yaml:"negative"`
	NewRequest  []string `yaml:"new_request"`
}

func DefaultDomain() *Domain {
	return &Domain{
		BaseID: defaultBaseID,
		Tables: []TableDef{
			{Key: "transactions", ID: "tblSgYN8CbQcxeT0j", Name: "עסקה", Aliases: []string{"transactions", "transaction", "עסקאות"}},
			{Key: "customers", ID: "tblcTFGg6WyKkO5kq", Name: "לקוח", Aliases: []string{"customers", "customer", "לקוחות"}},
			{Key: "projects", ID: "tbl9p6XdUrecy2h7G", Name: "פרויקט", Aliases: []string{"projects", "project", "פרויקטים", "פרוייקטים", "פרויקט"}},
			{Key: "leads", ID: "tbl3ZCmqfit2L0iQ0", Aliases: []string{"leads", "לידים"}},
			{Key: "offices", ID: "tbl7etO9Yn3VH9QpT", Aliases: []string{"offices", "משרדים"}},
			{Key: "flowers", ID: "tblNJzcMRtyMdH14d", Aliases: []string{"flowers", "פרחים"}},
			{Key: "control", ID: "tblYxAM0xNp0z9EoN", Aliases: []string{"control", "בקרה"}},
			{Key: "employees", ID: "tbl8JT0j7C35yMcc2", Aliases: []string{"employees", "עובדים"}},
		},
		Transactions: TransactionRules{
			Table:         "transactions",
			CustomerField: "לקוחות",
			ProjectField:  "פרוייקט",
			OfficeField:   "משרד",
		},
		Offices: OfficeRules{
			Table:        "offices",
			FloorField:   "קומה",
			ProjectField: "פרוייקט",
			NumberFields: []string{"מס׳ משרד duplicate", "מס׳ משרד", "מספר משרד"},
		},
		Keywords: Keywords{
			Affirmative: []string{"כן", "אישור", "אוקיי", "בצע", "yes", "ok", "confirm"},
			Negative:    []string{"לא", "ביטול", "no", "cancel"},
			NewRequest:  []string{"עדכן", "שנה", "תמצא", "חפש", "צור", "הוסף", "מחק", "הצג", "השלים", "העביר", "update", "change", "find", "search", "create", "add", "delete", "show"},
		},
	}
}

// LoadDomain reads path over the defaults. An empty path returns the
// defaults unchanged.
func LoadDomain(path string) (*Domain, error) {
	d := DefaultDomain()
	if path == "" {
		return d, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain file: %w", err)
	}

	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parse domain file: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("domain file %s: %w", path, err)
	}

	return d, nil
}

func (d *Domain) Validate() error {
	if len(d.Tables) == 0 {
		return fmt.Errorf("no tables defined")
	}

	seen := make(map[string]bool, len(d.Tables))
	for _, t := range d.Tables {
		if t.Key == "" || t.ID == "" {
			return fmt.Errorf("table entries need both key and id")
		}
		if seen[t.Key] {
			return fmt.Errorf("duplicate table key %q", t.Key)
		}
		seen[t.Key] = true
	}

	if d.Transactions.Table != "" && !seen[d.Transactions.Table] {
		return fmt.Errorf("transactions table %q is not defined", d.Transactions.Table)
	}
	if d.Offices.Table != "" && !seen[d.Offices.Table] {
		return fmt.Errorf("offices table %q is not defined", d.Offices.Table)
	}

	if len(d.Keywords.Affirmative) == 0 || len(d.Keywords.Negative) == 0 {
		return fmt.Errorf("affirmative and negative keywords are required")
	}

	return nil
}

// Table returns the definition registered under key.
func (d *Domain) Table(key string) (TableDef, bool) {
	for _, t := range d.Tables {
		if t.Key == key {
			return t, true
		}
	}
	return TableDef{}, false
}
