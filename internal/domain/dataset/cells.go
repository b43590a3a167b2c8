package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Cells is one stored row keyed by header name. Readers collect the first
// conversion error; check Err once after reading every field.
type Cells struct {
	values map[string]string
	loc    *time.Location
	err    error
}

func NewCells(header, row []string, loc *time.Location) Cells {
	values := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			values[strings.TrimSpace(name)] = strings.TrimSpace(row[i])
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return Cells{values: values, loc: loc}
}

// CellsOf builds Cells from a map, mainly for tests.
func CellsOf(values map[string]string) Cells {
	return Cells{values: values, loc: time.UTC}
}

func (c *Cells) Err() error { return c.err }

func (c *Cells) fail(column, raw string, err error) {
	if c.err == nil {
		c.err = fmt.Errorf("column %s value %q: %w", column, raw, err)
	}
}

func (c *Cells) String(column string) string {
	return c.values[column]
}

func (c *Cells) Text(column string) *string {
	v := c.values[column]
	if v == "" {
		return nil
	}
	return &v
}

func (c *Cells) Float(column string) *float64 {
	raw := c.values[column]
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.fail(column, raw, err)
		return nil
	}
	return &v
}

// Int accepts integral floats such as "3.0", which spreadsheets produce.
func (c *Cells) Int(column string) *int64 {
	raw := c.values[column]
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		if err == nil {
			err = errors.New("not an integer")
		}
		c.fail(column, raw, err)
		return nil
	}
	v := int64(f)
	return &v
}

func (c *Cells) Bool(column string) *bool {
	raw := c.values[column]
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.fail(column, raw, err)
		return nil
	}
	return &v
}

// Time reads a date or datetime cell.
func (c *Cells) Time(column string) time.Time {
	raw := c.values[column]
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{DateTimeLayout, DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, raw, c.loc); err == nil {
			return t
		}
	}
	c.fail(column, raw, errors.New("unrecognised date"))
	return time.Time{}
}

// Require records an error when a key column is blank.
func (c *Cells) Require(columns ...string) {
	for _, column := range columns {
		if c.values[column] == "" {
			c.fail(column, "", errors.New("required"))
		}
	}
}

// Formatting helpers render nulls as empty cells.

func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func FormatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func FormatText(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func FormatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}
