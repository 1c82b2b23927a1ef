package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Types below are stored as jsonb columns.

type CommissionRates map[int]decimal.Decimal

func (r CommissionRates) Clone() CommissionRates {
	if r == nil {
		return nil
	}
	c := make(CommissionRates, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Rate returns the configured rate for a level.
func (r CommissionRates) Rate(level int) (decimal.Decimal, bool) {
	v, ok := r[level]
	return v, ok
}

type Int64List []int64

type StringMap map[string]string

func (r CommissionRates) Value() (driver.Value, error) { return jsonValue(r) }
func (r *CommissionRates) Scan(src any) error        { return jsonScan(src, r) }
func (c CrawlSets) Value() (driver.Value, error)     { return jsonValue(c) }
func (c *CrawlSets) Scan(src any) error              { return jsonScan(src, c) }
func (l Int64List) Value() (driver.Value, error)     { return jsonValue(l) }
func (l *Int64List) Scan(src any) error              { return jsonScan(src, l) }
func (m StringMap) Value() (driver.Value, error)     { return jsonValue(m) }
func (m *StringMap) Scan(src any) error              { return jsonScan(src, m) }

func jsonValue(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonScan(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
