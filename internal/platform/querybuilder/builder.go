// Package querybuilder renders the handful of postgres statements the sheet
// store needs, numbering placeholders as $1..$N.
package querybuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrIncomplete = errors.New("querybuilder: incomplete statement")

type Condition struct {
	Column string
	Value  any
}

func Eq(column string, value any) Condition {
	return Condition{Column: column, Value: value}
}

type params struct {
	args []any
}

func (p *params) bind(value any) string {
	p.args = append(p.args, value)
	return "$" + strconv.Itoa(len(p.args))
}

func (p *params) where(buf *strings.Builder, conds []Condition) {
	for i, c := range conds {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(c.Column)
		buf.WriteString(" = ")
		buf.WriteString(p.bind(c.Value))
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, columns...)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 || b.table == "" {
		return "", nil, fmt.Errorf("%w: select needs columns and table", ErrIncomplete)
	}
	var (
		buf strings.Builder
		p   params
	)
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)
	p.where(&buf, b.where)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	return buf.String(), p.args, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conds ...Condition) *DeleteBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("%w: delete needs a table", ErrIncomplete)
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("%w: refusing unscoped delete on %s", ErrIncomplete, b.table)
	}
	var (
		buf strings.Builder
		p   params
	)
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)
	p.where(&buf, b.where)
	return buf.String(), p.args, nil
}

type InsertBuilder struct {
	table    string
	columns  []string
	rows     [][]any
	conflict string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = columns
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, values)
	return b
}

// OnConflictUpdate upserts on target, overwriting the given columns.
func (b *InsertBuilder) OnConflictUpdate(target []string, columns ...string) *InsertBuilder {
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		sets = append(sets, c+" = EXCLUDED."+c)
	}
	b.conflict = "ON CONFLICT (" + strings.Join(target, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if b.table == "" || len(b.columns) == 0 || len(b.rows) == 0 {
		return "", nil, fmt.Errorf("%w: insert needs table, columns and values", ErrIncomplete)
	}
	var (
		buf strings.Builder
		p   params
	)
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(p.bind(v))
		}
		buf.WriteByte(')')
	}
	if b.conflict != "" {
		buf.WriteByte(' ')
		buf.WriteString(b.conflict)
	}
	return buf.String(), p.args, nil
}
