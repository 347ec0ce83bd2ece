package tabular

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/unet-io/unet/pkg/storage"
)

// matchFilter reports whether entity satisfies f, comparing its named
// field (case-insensitively) by string representation.
func matchFilter(entity any, f storage.Filter) bool {
	fieldVal, ok := fieldByName(entity, f.Field)
	if !ok {
		return false
	}
	actual := fmt.Sprintf("%v", fieldVal)
	want := fmt.Sprintf("%v", f.Value)

	switch f.Op {
	case storage.FilterEquals:
		return actual == want
	case storage.FilterNotEquals:
		return actual != want
	case storage.FilterContains:
		return strings.Contains(actual, want)
	case storage.FilterStartsWith:
		return strings.HasPrefix(actual, want)
	case storage.FilterEndsWith:
		return strings.HasSuffix(actual, want)
	case storage.FilterGreaterThan:
		return actual > want
	case storage.FilterLessThan:
		return actual < want
	case storage.FilterIn:
		values, ok := f.Value.([]string)
		if !ok {
			return false
		}
		for _, v := range values {
			if v == actual {
				return true
			}
		}
		return false
	case storage.FilterNotIn:
		values, ok := f.Value.([]string)
		if !ok {
			return true
		}
		for _, v := range values {
			if v == actual {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func fieldByName(entity any, name string) (any, bool) {
	v := reflect.ValueOf(entity)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < v.NumField(); i++ {
		if strings.EqualFold(v.Type().Field(i).Name, name) {
			return v.Field(i).Interface(), true
		}
	}
	return nil, false
}

func applyFilters[T any](items []*T, filters []storage.Filter) []*T {
	if len(filters) == 0 {
		return items
	}
	out := make([]*T, 0, len(items))
	for _, item := range items {
		match := true
		for _, f := range filters {
			if !matchFilter(item, f) {
				match = false
				break
			}
		}
		if match {
			out = append(out, item)
		}
	}
	return out
}

func applySort[T any](items []*T, sorts []storage.Sort) {
	if len(sorts) == 0 {
		sorts = []storage.Sort{{Field: "ID", Direction: storage.SortAscending}}
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, s := range sorts {
			vi, _ := fieldByName(items[i], s.Field)
			vj, _ := fieldByName(items[j], s.Field)
			si, sj := fmt.Sprintf("%v", vi), fmt.Sprintf("%v", vj)
			if si == sj {
				continue
			}
			if s.Direction == storage.SortDescending {
				return si > sj
			}
			return si < sj
		}
		return false
	})
}

func applyPagination[T any](items []*T, p *storage.Pagination) []*T {
	if p == nil {
		return items
	}
	start := p.Offset
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}
	return items[start:end]
}
