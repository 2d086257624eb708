package worker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/retriever"
)

// predicateEnv is the expr-lang environment mandatory-field predicates
// run against: the candidate's raw record, exposed through a small set of
// comparison helpers rather than raw map indexing so the compiled source
// stays readable. Grounded on smilemakc-mbflow's src/condition package,
// which compiles stored rule strings against a similar helper-method env.
type predicateEnv struct {
	Record map[string]any
}

func (e predicateEnv) Present(field string) bool {
	v, ok := e.Record[field]
	return ok && !isBlank(v)
}

func (e predicateEnv) NumGE(field string, bound float64) bool {
	n, ok := recordNumber(e.Record[field])
	return ok && n >= bound
}

func (e predicateEnv) NumLE(field string, bound float64) bool {
	n, ok := recordNumber(e.Record[field])
	return ok && n <= bound
}

// recordNumber reads a scalar number, falling back to model.NormalizePrice
// (the cheapest leaf of a nested map or list) for non-scalar values.
func recordNumber(v any) (float64, bool) {
	if n, ok := asNumber(v); ok {
		return n, true
	}
	min, _, _, ok := model.NormalizePrice(v)
	return min, ok
}

func (e predicateEnv) ContainsCI(field, needle string) bool {
	s := stringify(e.Record[field])
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}

func (e predicateEnv) SetIntersects(field string, needles []string) bool {
	values := stringList(e.Record[field])
	for _, v := range values {
		for _, n := range needles {
			if strings.EqualFold(v, n) {
				return true
			}
		}
	}
	return false
}

// compileMandatory compiles one mandatory-field check into an expr
// program. expected is the criteria attribute matching field, if any;
// ok is false when the field is listed as mandatory with no attribute
// value, meaning "must simply be present."
func compileMandatory(category model.Category, field string, expected any, ok bool) (*vm.Program, error) {
	var code string
	switch {
	case !ok:
		code = fmt.Sprintf("Present(%s)", quote(field))
	default:
		switch v := expected.(type) {
		case []any:
			code = setIntersectsCode(category, field, toStringSlice(v))
		case []string:
			code = setIntersectsCode(category, field, v)
		case float64:
			code = numericCode(field, v)
		case int:
			code = numericCode(field, float64(v))
		case string:
			code = containsAnyCode(category, field, v)
		default:
			code = fmt.Sprintf("Present(%s)", quote(field))
		}
	}
	return expr.Compile(code, expr.Env(predicateEnv{}))
}

func numericCode(field string, bound float64) string {
	lower := strings.ToLower(field)
	switch {
	case strings.Contains(lower, "capacity"), strings.Contains(lower, "guest"):
		return fmt.Sprintf("NumGE(%s, %v)", quote(field), bound)
	case strings.Contains(lower, "budget"), strings.Contains(lower, "price"):
		return fmt.Sprintf("NumLE(%s, %v)", quote(field), bound)
	default:
		return fmt.Sprintf("NumGE(%s, %v) && NumLE(%s, %v)", quote(field), bound, quote(field), bound)
	}
}

func containsAnyCode(category model.Category, field, value string) string {
	alternatives := append([]string{value}, retriever.Synonyms(category, value)...)
	parts := make([]string, len(alternatives))
	for i, alt := range alternatives {
		parts[i] = fmt.Sprintf("ContainsCI(%s, %s)", quote(field), quote(alt))
	}
	return strings.Join(parts, " || ")
}

func setIntersectsCode(category model.Category, field string, values []string) string {
	expanded := make([]string, 0, len(values))
	for _, v := range values {
		expanded = append(expanded, v)
		expanded = append(expanded, retriever.Synonyms(category, v)...)
	}
	return fmt.Sprintf("SetIntersects(%s, %s)", quote(field), literalStringList(expanded))
}

func quote(s string) string {
	return strconv.Quote(s)
}

func literalStringList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = quote(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func toStringSlice(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, stringify(item))
		}
		return out
	case []string:
		return t
	case string:
		return []string{t}
	default:
		return nil
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
