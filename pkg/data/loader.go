package data

import (
	"bufio"
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"salesml/pkg/logger"
	"salesml/pkg/table"
)

// LoadCSV reads a headered CSV into a Dataset. Columns whose non-empty
// values all parse as numbers become float columns, with empty or malformed
// cells stored as NaN (missing); everything else stays a string column.
// Columns named in forceString are never inferred numeric, so categorical
// codes that happen to look like numbers ("0") keep their string identity.
func LoadCSV(path string, forceString ...string) (*table.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(records) < 2 {
		return nil, errors.Errorf("%s: no data rows", path)
	}
	headers := records[0]
	rows := records[1:]
	n := len(rows)

	stringCols := map[string]bool{}
	for _, name := range forceString {
		stringCols[name] = true
	}

	ds := table.New(n)
	for j, name := range headers {
		col := make([]string, n)
		for i, rec := range rows {
			if j < len(rec) {
				col[i] = rec[j]
			}
		}

		numeric := !stringCols[name]
		if numeric {
			for _, v := range col {
				if v == "" {
					continue
				}
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					numeric = false
					break
				}
			}
		}

		if numeric {
			nums := make([]float64, n)
			for i, v := range col {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					f = math.NaN()
				}
				nums[i] = f
			}
			ds, err = ds.WithFloats(name, nums)
		} else {
			ds, err = ds.WithStrings(name, col)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s", path)
		}
	}
	logger.Info("table loaded",
		zap.String("path", path),
		zap.Int("rows", n),
		zap.Int("columns", len(headers)))
	return ds, nil
}

// LoadSales reads the per-store daily sales table.
func LoadSales(path string) (*table.Dataset, error) {
	return LoadCSV(path, "StateHoliday", "Date")
}

// LoadStores reads the store metadata table.
func LoadStores(path string) (*table.Dataset, error) {
	return LoadCSV(path, "StoreType", "Assortment", "PromoInterval")
}

// joinKey renders a join-key cell as a comparable string; ok is false when
// the cell is missing.
func joinKey(ds *table.Dataset, col string, i int, typ table.ColumnType) (string, bool) {
	switch typ {
	case table.Float:
		vals, _ := ds.Floats(col)
		if math.IsNaN(vals[i]) {
			return "", false
		}
		return strconv.FormatFloat(vals[i], 'g', -1, 64), true
	case table.String:
		vals, _ := ds.Strings(col)
		if vals[i] == "" {
			return "", false
		}
		return vals[i], true
	}
	return "", false
}

// Join inner-joins left and right on the key column. Rows with a missing or
// unmatched key are dropped and counted; after Join the key is present and
// non-null in every row.
func Join(left, right *table.Dataset, key string) (*table.Dataset, error) {
	lt := left.Schema().Index(key)
	if lt < 0 {
		return nil, errors.Wrap(&table.SchemaError{Column: key}, "joining left table")
	}
	rt := right.Schema().Index(key)
	if rt < 0 {
		return nil, errors.Wrap(&table.SchemaError{Column: key}, "joining right table")
	}
	ltyp := left.Schema()[lt].Type
	rtyp := right.Schema()[rt].Type

	rightByKey := make(map[string]int, right.NumRows())
	for i := 0; i < right.NumRows(); i++ {
		if k, ok := joinKey(right, key, i, rtyp); ok {
			if _, dup := rightByKey[k]; !dup {
				rightByKey[k] = i
			}
		}
	}

	var leftKeep, rightKeep []int
	dropped := 0
	for i := 0; i < left.NumRows(); i++ {
		k, ok := joinKey(left, key, i, ltyp)
		if !ok {
			dropped++
			continue
		}
		j, ok := rightByKey[k]
		if !ok {
			dropped++
			continue
		}
		leftKeep = append(leftKeep, i)
		rightKeep = append(rightKeep, j)
	}

	joined := left.Take(leftKeep)
	rightRows := right.Take(rightKeep)
	var err error
	for _, c := range right.Schema() {
		if c.Name == key || joined.Schema().Has(c.Name) {
			continue
		}
		switch c.Type {
		case table.Float:
			col, _ := rightRows.Floats(c.Name)
			joined, err = joined.WithFloats(c.Name, col)
		case table.String:
			col, _ := rightRows.Strings(c.Name)
			joined, err = joined.WithStrings(c.Name, col)
		case table.Vector:
			col, _ := rightRows.Vectors(c.Name)
			joined, err = joined.WithVectors(c.Name, col)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "joining column %s", c.Name)
		}
	}

	if dropped > 0 {
		logger.Warn("rows dropped by join",
			zap.String("key", key),
			zap.Int("dropped", dropped))
	}
	logger.Info("tables joined",
		zap.String("key", key),
		zap.Int("rows", joined.NumRows()))
	return joined, nil
}

// FilterRows keeps the rows where keep returns true for the named float
// column; missing values never match.
func FilterRows(ds *table.Dataset, col string, keep func(float64) bool) (*table.Dataset, error) {
	vals, err := ds.Floats(col)
	if err != nil {
		return nil, errors.Wrapf(err, "filtering on %s", col)
	}
	idx := []int{}
	for i, v := range vals {
		if !math.IsNaN(v) && keep(v) {
			idx = append(idx, i)
		}
	}
	return ds.Take(idx), nil
}
