package policy

import (
	"fmt"
	"strings"

	"github.com/aws/smithy-go/ptr"
	"github.com/bytedance/sonic"
)

// Condition is a constraint on one attribute of a store operation.
// Exactly one shape is set: a literal string or number, a prefix or
// suffix match, a bound, a membership set, or a closed numeric range.
//
// The zero Condition is invalid and fails to marshal.
type Condition struct {
	literal    any
	startsWith *string
	endsWith   *string
	lte        *float64
	gte        *float64
	oneOf      []any
	rng        *[2]float64
}

// String matches the attribute exactly against a string literal.
func String(s string) Condition { return Condition{literal: s} }

// Number matches the attribute exactly against a numeric literal.
func Number(n float64) Condition { return Condition{literal: n} }

// StartsWith matches string attributes by prefix.
func StartsWith(prefix string) Condition { return Condition{startsWith: ptr.String(prefix)} }

// EndsWith matches string attributes by suffix.
func EndsWith(suffix string) Condition { return Condition{endsWith: ptr.String(suffix)} }

// LTE bounds numeric attributes from above, inclusive.
func LTE(n float64) Condition { return Condition{lte: ptr.Float64(n)} }

// GTE bounds numeric attributes from below, inclusive.
func GTE(n float64) Condition { return Condition{gte: ptr.Float64(n)} }

// OneOf matches the attribute against a membership set of strings
// and/or numbers.
func OneOf(values ...any) Condition { return Condition{oneOf: values} }

// Range bounds numeric attributes to the closed interval [lo, hi].
// The endpoints are carried as given: an inverted interval is not
// rejected here, the service decides how to treat it.
func Range(lo, hi float64) Condition { return Condition{rng: &[2]float64{lo, hi}} }

func (c Condition) MarshalJSON() ([]byte, error) {
	switch {
	case c.literal != nil:
		return canonicalJSON.Marshal(c.literal)
	case c.startsWith != nil:
		return canonicalJSON.Marshal(map[string]string{"startsWith": *c.startsWith})
	case c.endsWith != nil:
		return canonicalJSON.Marshal(map[string]string{"endsWith": *c.endsWith})
	case c.lte != nil:
		return canonicalJSON.Marshal(map[string]float64{"lte": *c.lte})
	case c.gte != nil:
		return canonicalJSON.Marshal(map[string]float64{"gte": *c.gte})
	case c.oneOf != nil:
		return canonicalJSON.Marshal(map[string][]any{"oneOf": c.oneOf})
	case c.rng != nil:
		return canonicalJSON.Marshal(map[string][2]float64{"range": *c.rng})
	default:
		return nil, fmt.Errorf("condition has no shape set")
	}
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var v any
	if err := sonic.Unmarshal(data, &v); err != nil {
		return err
	}

	switch val := v.(type) {
	case string, float64:
		c.literal = val
		return nil
	case map[string]any:
		if len(val) != 1 {
			return fmt.Errorf("condition object must have exactly one key, got %d", len(val))
		}
		for key, inner := range val {
			return c.setShape(key, inner)
		}
	}
	return fmt.Errorf("condition must be a string, a number or a single-key object")
}

func (c *Condition) setShape(key string, inner any) error {
	switch key {
	case "startsWith":
		s, ok := inner.(string)
		if !ok {
			return fmt.Errorf("startsWith must be a string")
		}
		c.startsWith = ptr.String(s)
	case "endsWith":
		s, ok := inner.(string)
		if !ok {
			return fmt.Errorf("endsWith must be a string")
		}
		c.endsWith = ptr.String(s)
	case "lte":
		n, ok := inner.(float64)
		if !ok {
			return fmt.Errorf("lte must be a number")
		}
		c.lte = ptr.Float64(n)
	case "gte":
		n, ok := inner.(float64)
		if !ok {
			return fmt.Errorf("gte must be a number")
		}
		c.gte = ptr.Float64(n)
	case "oneOf":
		vals, ok := inner.([]any)
		if !ok {
			return fmt.Errorf("oneOf must be an array")
		}
		c.oneOf = vals
	case "range":
		pair, ok := inner.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("range must be a two-element array")
		}
		lo, okLo := pair[0].(float64)
		hi, okHi := pair[1].(float64)
		if !okLo || !okHi {
			return fmt.Errorf("range endpoints must be numbers")
		}
		c.rng = &[2]float64{lo, hi}
	default:
		return fmt.Errorf("unknown condition shape %q", key)
	}
	return nil
}

// Matches reports whether a concrete attribute value satisfies the
// condition. Strings match string shapes, numbers match numeric
// shapes; a type mismatch never matches.
func (c Condition) Matches(value any) bool {
	str, isStr := value.(string)
	num, isNum := toFloat(value)

	switch {
	case c.literal != nil:
		if lit, ok := c.literal.(string); ok {
			return isStr && str == lit
		}
		if lit, ok := toFloat(c.literal); ok {
			return isNum && num == lit
		}
		return false
	case c.startsWith != nil:
		return isStr && strings.HasPrefix(str, *c.startsWith)
	case c.endsWith != nil:
		return isStr && strings.HasSuffix(str, *c.endsWith)
	case c.lte != nil:
		return isNum && num <= *c.lte
	case c.gte != nil:
		return isNum && num >= *c.gte
	case c.oneOf != nil:
		for _, candidate := range c.oneOf {
			if cs, ok := candidate.(string); ok && isStr && cs == str {
				return true
			}
			if cn, ok := toFloat(candidate); ok && isNum && cn == num {
				return true
			}
		}
		return false
	case c.rng != nil:
		return isNum && num >= c.rng[0] && num <= c.rng[1]
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
