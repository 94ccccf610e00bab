package database

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
)

// The store layout is declarative: schema.json enumerates every table, its
// columns and constraints. It is the single source used both to create a
// fresh store and to validate an existing one column-for-column.
//
//go:embed schema.json
var schemaJSON []byte

// Column describes one column of a store table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	NotNull    bool   `json:"not_null,omitempty"`
}

// Table describes one store table.
type Table struct {
	Name        string            `json:"name"`
	Columns     []Column          `json:"columns"`
	Unique      [][]string        `json:"unique,omitempty"`
	ForeignKeys map[string]string `json:"foreign_keys,omitempty"`
}

// loadSchema parses the embedded schema description.
func loadSchema() ([]Table, error) {
	var tables []Table
	if err := json.Unmarshal(schemaJSON, &tables); err != nil {
		return nil, fmt.Errorf("parsing embedded schema: %w", err)
	}
	return tables, nil
}

// DDL renders the CREATE TABLE statement for the table.
func (t Table) DDL() string {
	parts := make([]string, 0, len(t.Columns)+len(t.Unique)+len(t.ForeignKeys))
	for _, c := range t.Columns {
		col := c.Name + " " + c.Type
		if c.PrimaryKey {
			col += " PRIMARY KEY"
		}
		if c.NotNull {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}
	for _, u := range t.Unique {
		parts = append(parts, "UNIQUE("+strings.Join(u, ", ")+")")
	}
	fkCols := make([]string, 0, len(t.ForeignKeys))
	for col := range t.ForeignKeys {
		fkCols = append(fkCols, col)
	}
	sort.Strings(fkCols)
	for _, col := range fkCols {
		parts = append(parts, fmt.Sprintf("FOREIGN KEY(%s) REFERENCES %s", col, t.ForeignKeys[col]))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(parts, ", "))
}

// columnInfo is one PRAGMA table_info row.
type columnInfo struct {
	CID  int    `gorm:"column:cid"`
	Name string `gorm:"column:name"`
	Type string `gorm:"column:type"`
}

// validateTable compares an existing table against the expected schema,
// column for column: position, name and declared type all have to agree.
// Any disagreement is a schema mismatch, which the caller
// must treat as fatal: the engine never auto-migrates an existing store.
func validateTable(db *gorm.DB, t Table) error {
	var info []columnInfo
	if err := db.Raw("PRAGMA table_info(" + t.Name + ")").Scan(&info).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	if len(info) == 0 {
		return apperrors.WithMessage(apperrors.ErrSchemaMismatch,
			fmt.Sprintf("table %s is missing from the store; delete or fix the file", t.Name))
	}
	if len(info) != len(t.Columns) {
		return apperrors.WithMessage(apperrors.ErrSchemaMismatch,
			fmt.Sprintf("table %s has %d columns, expected %d; delete or fix the file",
				t.Name, len(info), len(t.Columns)))
	}
	for i, c := range t.Columns {
		if !strings.EqualFold(info[i].Name, c.Name) {
			return apperrors.WithMessage(apperrors.ErrSchemaMismatch,
				fmt.Sprintf("table %s column %d is %q, expected %q; delete or fix the file",
					t.Name, i, info[i].Name, c.Name))
		}
		if !strings.EqualFold(info[i].Type, c.Type) {
			return apperrors.WithMessage(apperrors.ErrSchemaMismatch,
				fmt.Sprintf("table %s column %s is declared %s, expected %s; delete or fix the file",
					t.Name, c.Name, info[i].Type, c.Type))
		}
	}
	return nil
}
