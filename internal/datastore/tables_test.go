package datastore

import (
	"errors"
	"testing"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
)

func TestResolveTable(t *testing.T) {
	tables := NewTables(config.DefaultDomain().Tables)

	tests := []struct {
		name string
		want string
	}{
		{"tblSgYN8CbQcxeT0j", "tblSgYN8CbQcxeT0j"},
		{"customers", "tblcTFGg6WyKkO5kq"},
		{"  Customers ", "tblcTFGg6WyKkO5kq"},
		{"לקוחות", "tblcTFGg6WyKkO5kq"},
		{"פרוייקטים", "tbl9p6XdUrecy2h7G"},
		{"offices", "tbl7etO9Yn3VH9QpT"},
	}

	for _, tt := range tests {
		got, err := tables.Resolve(tt.name)
		if err != nil {
			t.Errorf("Resolve(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestResolveUnknownTable(t *testing.T) {
	tables := NewTables(config.DefaultDomain().Tables)

	_, err := tables.Resolve("invoices")
	if !errors.Is(err, ErrInvalidTable) {
		t.Errorf("expected ErrInvalidTable, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tables := NewTables(config.DefaultDomain().Tables)

	if got := tables.DisplayName("transactions"); got != "עסקה" {
		t.Errorf("unexpected display name %q", got)
	}
	if got := tables.DisplayName("leads"); got != "" {
		t.Errorf("leads has no display name, got %q", got)
	}
	if got := tables.DisplayName("nope"); got != "" {
		t.Errorf("unknown table should have no display name, got %q", got)
	}
}

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"rec000000000001", false},
		{"rec0000000000001", true},
		{"rec00000000000001", true},
		{"rec0000000000000-1", false},
		{"recABCDEFGHIJKLMNOP", true},
		{"tbl00000000000001", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidateRecordID(tt.id)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateRecordID(%q) = %v, want valid=%v", tt.id, err, tt.valid)
		}
		if err != nil && !errors.Is(err, ErrInvalidRecordID) {
			t.Errorf("expected ErrInvalidRecordID, got %v", err)
		}
	}
}
