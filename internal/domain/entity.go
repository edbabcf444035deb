// Package domain holds the core entity types and repository interfaces.
package domain

import "fmt"

// Entity represents one subject row from the entities file.
// Immutable after load; re-ingestion builds a fresh table.
type Entity struct {
	EID       int64
	FirstName string
	LastName  string
	Age       int64
	Country   string
	ZipCode   string
	Emails    []string
}

// StringField returns the named categorical field. Used by cohort equality
// rules; numeric fields are not addressable here.
func (e *Entity) StringField(name string) (string, bool) {
	switch name {
	case "first_name":
		return e.FirstName, true
	case "last_name":
		return e.LastName, true
	case "country":
		return e.Country, true
	case "zip_code":
		return e.ZipCode, true
	default:
		return "", false
	}
}

// NumberField returns the named numeric field.
func (e *Entity) NumberField(name string) (float64, bool) {
	switch name {
	case "eid":
		return float64(e.EID), true
	case "age":
		return float64(e.Age), true
	default:
		return 0, false
	}
}

// EmailList returns the entity's email addresses.
func (e *Entity) EmailList() []string { return e.Emails }

// EntityTable is an ordered, eid-indexed set of entities. It is built once
// per ingestion and read-only afterwards; refreshes swap in a new table.
type EntityTable struct {
	entities []Entity
	byEID    map[int64]int
}

// NewEntityTable builds a table preserving the given order. Duplicate eids
// are rejected: the entities file is the system of record and must be clean.
func NewEntityTable(entities []Entity) (*EntityTable, error) {
	t := &EntityTable{
		entities: entities,
		byEID:    make(map[int64]int, len(entities)),
	}
	for i, e := range entities {
		if _, dup := t.byEID[e.EID]; dup {
			return nil, fmt.Errorf("duplicate entity id %d", e.EID)
		}
		t.byEID[e.EID] = i
	}
	return t, nil
}

// ByEID returns the entity with the given id.
func (t *EntityTable) ByEID(eid int64) (*Entity, error) {
	i, ok := t.byEID[eid]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", eid, ErrEntityNotFound)
	}
	return &t.entities[i], nil
}

// All returns the entities in file order. The returned slice must not be
// modified.
func (t *EntityTable) All() []Entity { return t.entities }

// Len returns the number of entities in the table.
func (t *EntityTable) Len() int { return len(t.entities) }
