// Package schema reflects table and column metadata out of a live database.
package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

type Table struct {
	Name    string
	Columns []Column
}

// Map is the table-to-columns description of a database, in introspected
// order. It is not modified after construction.
type Map struct {
	tables []Table
	byName map[string]int
}

func NewMap(tables []Table) Map {
	copied := make([]Table, len(tables))
	byName := make(map[string]int, len(tables))
	for i, table := range tables {
		columns := make([]Column, len(table.Columns))
		copy(columns, table.Columns)
		copied[i] = Table{Name: table.Name, Columns: columns}
		byName[table.Name] = i
	}
	return Map{tables: copied, byName: byName}
}

func (m Map) Len() int {
	return len(m.tables)
}

func (m Map) TableNames() []string {
	names := make([]string, 0, len(m.tables))
	for _, table := range m.tables {
		names = append(names, table.Name)
	}
	return names
}

// Tables returns a copy of the tables so callers cannot mutate the map.
func (m Map) Tables() []Table {
	out := make([]Table, len(m.tables))
	for i, table := range m.tables {
		columns := make([]Column, len(table.Columns))
		copy(columns, table.Columns)
		out[i] = Table{Name: table.Name, Columns: columns}
	}
	return out
}

func (m Map) Table(name string) (Table, bool) {
	index, ok := m.byName[name]
	if !ok {
		return Table{}, false
	}
	return m.Tables()[index], true
}

func (t Table) Describe() string {
	lines := make([]string, 0, len(t.Columns))
	for _, column := range t.Columns {
		lines = append(lines, fmt.Sprintf("%s (%s)", column.Name, column.Type))
	}
	return strings.Join(lines, "\n")
}

// Format renders the map in the layout used by the SQL generation prompt.
func (m Map) Format() string {
	blocks := make([]string, 0, len(m.tables))
	for _, table := range m.tables {
		blocks = append(blocks, fmt.Sprintf("Table: %s\nSchema:\n%s", table.Name, table.Describe()))
	}
	return strings.Join(blocks, "\n\n")
}
