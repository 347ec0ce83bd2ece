package relational

import (
	"fmt"
	"strings"

	"github.com/unet-io/unet/pkg/storage"
)

// fieldColumns maps the storage.Filter/Sort Field values (Go struct
// field names used by the tabular backend's reflection-based matcher)
// onto this backend's column names, so callers can write the same
// QueryOptions against either backend.
var fieldColumns = map[string]string{
	"ID":              "id",
	"Name":            "name",
	"Domain":          "domain",
	"Vendor":          "vendor",
	"Model":           "model",
	"Role":            "role",
	"Lifecycle":       "lifecycle",
	"ManagementIP":    "management_ip",
	"LocationID":      "location_id",
	"Platform":        "platform",
	"Version":         "version",
	"Serial":          "serial",
	"AssetTag":        "asset_tag",
	"LocationType":    "location_type",
	"ParentID":        "parent_id",
	"Path":            "path",
	"SourceNodeID":    "source_node_id",
	"DestNodeID":      "dest_node_id",
	"LinkType":        "link_type",
}

func columnFor(field string) string {
	if c, ok := fieldColumns[field]; ok {
		return c
	}
	return strings.ToLower(field)
}

// buildWhere renders filters into a "WHERE ..." clause (or "" when
// there are none) plus its positional args, in the order supplied.
func buildWhere(filters []storage.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	var clauses []string
	var args []any
	for _, f := range filters {
		col := columnFor(f.Field)
		switch f.Op {
		case storage.FilterEquals:
			clauses = append(clauses, col+" = ?")
			args = append(args, f.Value)
		case storage.FilterNotEquals:
			clauses = append(clauses, col+" != ?")
			args = append(args, f.Value)
		case storage.FilterContains:
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, fmt.Sprintf("%%%v%%", f.Value))
		case storage.FilterStartsWith:
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, fmt.Sprintf("%v%%", f.Value))
		case storage.FilterEndsWith:
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, fmt.Sprintf("%%%v", f.Value))
		case storage.FilterGreaterThan:
			clauses = append(clauses, col+" > ?")
			args = append(args, f.Value)
		case storage.FilterLessThan:
			clauses = append(clauses, col+" < ?")
			args = append(args, f.Value)
		case storage.FilterIn:
			placeholders, vals := inArgs(f.Value)
			clauses = append(clauses, col+" IN ("+placeholders+")")
			args = append(args, vals...)
		case storage.FilterNotIn:
			placeholders, vals := inArgs(f.Value)
			clauses = append(clauses, col+" NOT IN ("+placeholders+")")
			args = append(args, vals...)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func inArgs(v any) (string, []any) {
	items, ok := v.([]any)
	if !ok {
		return "?", []any{v}
	}
	placeholders := make([]string, len(items))
	for i := range items {
		placeholders[i] = "?"
	}
	return strings.Join(placeholders, ","), items
}

func buildOrderBy(sorts []storage.Sort, defaultField string) string {
	if len(sorts) == 0 {
		return " ORDER BY " + defaultField
	}
	var parts []string
	for _, s := range sorts {
		dir := "ASC"
		if s.Direction == storage.SortDescending {
			dir = "DESC"
		}
		parts = append(parts, columnFor(s.Field)+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func buildLimitOffset(p *storage.Pagination) string {
	if p == nil {
		return ""
	}
	if p.Limit <= 0 {
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", p.Offset)
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, p.Offset)
}
