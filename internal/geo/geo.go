// Package geo holds the department → province → district reference table
// used by the checkout cascade selectors. The table is embedded at build
// time and loaded once.
package geo

import (
	"encoding/json"
	"fmt"
	"sort"

	_ "embed"
)

//go:embed ubigeo.json
var rawUbigeo []byte

type DistrictInfo struct {
	Code string `json:"ubigeo"`
	ID   int    `json:"id"`
	INEI string `json:"inei,omitempty"`
}

type Table struct {
	tree map[string]map[string]map[string]DistrictInfo
}

func Load() (*Table, error) {
	var tree map[string]map[string]map[string]DistrictInfo
	if err := json.Unmarshal(rawUbigeo, &tree); err != nil {
		return nil, fmt.Errorf("geo: decoding ubigeo table: %w", err)
	}
	return &Table{tree: tree}, nil
}

func (t *Table) Departments() []string {
	out := make([]string, 0, len(t.tree))
	for dep := range t.tree {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// Provinces returns the sorted provinces of a department, or an empty
// slice when the department is unknown.
func (t *Table) Provinces(department string) []string {
	provs := t.tree[department]
	out := make([]string, 0, len(provs))
	for p := range provs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Districts returns the sorted districts of a department/province pair,
// or an empty slice when either key is unknown.
func (t *Table) Districts(department, province string) []string {
	dists := t.tree[department][province]
	out := make([]string, 0, len(dists))
	for d := range dists {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (t *Table) District(department, province, district string) (DistrictInfo, bool) {
	info, ok := t.tree[department][province][district]
	return info, ok
}

func (t *Table) HasDepartment(department string) bool {
	_, ok := t.tree[department]
	return ok
}

func (t *Table) HasProvince(department, province string) bool {
	_, ok := t.tree[department][province]
	return ok
}

// DistrictRequired reports whether a district must be selected for the
// pair: it is required only when the table knows at least one district.
func (t *Table) DistrictRequired(department, province string) bool {
	return len(t.tree[department][province]) > 0
}
