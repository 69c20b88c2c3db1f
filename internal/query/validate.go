package query

import (
	"fmt"
	"strings"
)

// ValidationError rejects an expression. Token is the offending piece of
// input, Reason is a message suitable for feeding back to the oracle.
type ValidationError struct {
	Token  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(token, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Token: token, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a metric expression against the catalog.
func (c *Catalog) Validate(expr Expression) error {
	op := strings.ToLower(strings.TrimSpace(expr.Operation))
	if op == "" {
		return invalid("operation", "missing operation; expected one of %s", strings.Join(Operations, ", "))
	}
	if !contains(Operations, op) {
		return invalid(expr.Operation, "unknown operation %q; expected one of %s", expr.Operation, strings.Join(Operations, ", "))
	}

	def, err := c.entity(expr.Entity)
	if err != nil {
		return err
	}

	if op != OpCount && strings.TrimSpace(expr.Field) == "" {
		return invalid("field", "operation %q requires a \"field\"", op)
	}
	if strings.TrimSpace(expr.Field) != "" {
		f, ok := def.Field(expr.Field)
		if !ok {
			return invalid(expr.Field, "unknown field %q for entity %q", expr.Field, def.Name)
		}
		if op != OpCount && op != OpField && !f.Numeric() {
			return invalid(expr.Field, "field %q of entity %q is not numeric; operation %q needs a numeric field", expr.Field, def.Name, op)
		}
	}

	if err := validateFilters(def, expr.Filter); err != nil {
		return err
	}

	if expr.GroupBy != nil && expr.GroupBy.Field != "" {
		if _, ok := def.Field(expr.GroupBy.Field); !ok {
			return invalid(expr.GroupBy.Field, "unknown group_by field %q for entity %q", expr.GroupBy.Field, def.Name)
		}
	}
	return nil
}

// ValidateAxis checks a chart x-axis projection. The axis groups the records
// of yEntity, so its field must belong to yEntity; an axis that names an
// entity must name yEntity or one of its aliases.
func (c *Catalog) ValidateAxis(axis Expression, yEntity string) error {
	op := strings.ToLower(strings.TrimSpace(axis.Operation))
	if op == "" {
		op = OpField
	}
	if op != OpField && op != OpDateTrunc {
		return invalid(axis.Operation, "unknown x_axis operation %q; expected field or date_trunc", axis.Operation)
	}

	def, err := c.entity(yEntity)
	if err != nil {
		return err
	}
	if strings.TrimSpace(axis.Entity) != "" {
		xdef, err := c.entity(axis.Entity)
		if err != nil {
			return err
		}
		if xdef != def {
			return invalid(axis.Entity, "x_axis entity %q differs from y_axis entity %q; the x_axis field must be a field of %q", axis.Entity, def.Name, def.Name)
		}
	}

	if strings.TrimSpace(axis.Field) == "" {
		return invalid("field", "x_axis operation %q requires a \"field\"", op)
	}
	f, ok := def.Field(axis.Field)
	if !ok {
		return invalid(axis.Field, "unknown field %q for entity %q", axis.Field, def.Name)
	}
	if op == OpDateTrunc && !f.IsTime() && f.Name != "month" {
		return invalid(axis.Field, "date_trunc needs a time field; %q of entity %q is %s", axis.Field, def.Name, f.Kind)
	}
	return validateFilters(def, axis.Filter)
}

func (c *Catalog) entity(name string) (*EntityDef, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("entity", "missing entity; expected one of %s", strings.Join(c.Names(), ", "))
	}
	def, ok := c.Entity(name)
	if !ok {
		return nil, invalid(name, "unknown entity %q; expected one of %s", name, strings.Join(c.Names(), ", "))
	}
	return def, nil
}

func validateFilters(def *EntityDef, filters Filters) error {
	for _, f := range filters {
		if strings.TrimSpace(f.Field) == "" {
			return invalid("filter.field", "filter on entity %q is missing \"field\"", def.Name)
		}
		if _, ok := def.Field(f.Field); !ok {
			return invalid(f.Field, "unknown filter field %q for entity %q", f.Field, def.Name)
		}
		op := strings.ToLower(strings.TrimSpace(f.Op))
		if !contains(FilterOperators, op) {
			return invalid(f.Op, "unknown filter operator %q on field %q; expected one of %s", f.Op, f.Field, strings.Join(FilterOperators, ", "))
		}
		if op == FilterIn || op == FilterNotIn {
			if _, ok := asList(f.Value); !ok {
				return invalid(f.Field, "filter operator %q on field %q requires a list value", op, f.Field)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
