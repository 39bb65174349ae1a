package datastore

import (
	"fmt"
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
)

const (
	recordIDPrefix = "rec"
	// Airtable issues 17 character ids; shorter hand-typed ids are accepted
	// down to this length.
	minRecordIDLength = 16
	recordIDLength    = 17
)

// Tables resolves human-friendly table names to table ids.
type Tables struct {
	byID    map[string]config.TableDef
	byAlias map[string]string
	byKey   map[string]string
}

func NewTables(defs []config.TableDef) *Tables {
	t := &Tables{
		byID:    make(map[string]config.TableDef, len(defs)),
		byAlias: make(map[string]string),
		byKey:   make(map[string]string, len(defs)),
	}

	for _, def := range defs {
		t.byID[def.ID] = def
		t.byKey[def.Key] = def.ID
		t.byAlias[normalizeAlias(def.Key)] = def.ID
		for _, alias := range def.Aliases {
			t.byAlias[normalizeAlias(alias)] = def.ID
		}
	}

	return t
}

// Resolve accepts a table id or any registered alias.
func (t *Tables) Resolve(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if _, ok := t.byID[trimmed]; ok {
		return trimmed, nil
	}

	if id, ok := t.byAlias[normalizeAlias(trimmed)]; ok {
		return id, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidTable, name)
}

// ID returns the table id registered under key, or "" if none.
func (t *Tables) ID(key string) string {
	return t.byKey[key]
}

// DisplayName returns the singular display name for a table id or alias.
func (t *Tables) DisplayName(name string) string {
	id, err := t.Resolve(name)
	if err != nil {
		return ""
	}
	return t.byID[id].Name
}

func ValidateRecordID(id string) error {
	if !strings.HasPrefix(id, recordIDPrefix) || len(id) < minRecordIDLength {
		return fmt.Errorf("%w: %q", ErrInvalidRecordID, id)
	}
	for _, r := range id {
		if !isAlnum(r) {
			return fmt.Errorf("%w: %q", ErrInvalidRecordID, id)
		}
	}
	return nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func normalizeAlias(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
