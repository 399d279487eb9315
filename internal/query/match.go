package query

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Apply evaluates q against docs the way MongoDB would for the operators
// Build emits: filter, stable sort, skip/limit window, projection.
func (q *Query) Apply(docs []bson.M) []bson.M {
	matched := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		if Matches(d, q.Filter) {
			matched = append(matched, d)
		}
	}

	SortDocs(matched, q.Sort)

	n := int64(len(matched))
	start := q.Skip()
	if start < 0 || start >= n {
		return []bson.M{}
	}
	end := n
	if q.Limit > 0 && q.Limit < n-start {
		end = start + q.Limit
	}

	out := make([]bson.M, 0, end-start)
	for _, d := range matched[start:end] {
		out = append(out, Project(d, q.Projection))
	}
	return out
}

// Matches reports whether doc satisfies filter.
func Matches(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		if key == "$or" {
			if !matchesAny(doc, cond) {
				return false
			}
			continue
		}
		value, found := Lookup(doc, key)
		if ops, ok := cond.(bson.M); ok && isOperatorDoc(ops) {
			if !found || !matchOperators(value, ops) {
				return false
			}
			continue
		}
		if !equalOrContains(value, cond) {
			return false
		}
	}
	return true
}

func matchesAny(doc bson.M, cond any) bool {
	clauses, ok := cond.(bson.A)
	if !ok {
		return false
	}
	for _, c := range clauses {
		if sub, ok := c.(bson.M); ok && Matches(doc, sub) {
			return true
		}
	}
	return false
}

func isOperatorDoc(m bson.M) bool {
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return len(m) > 0
}

func matchOperators(value any, ops bson.M) bool {
	for op, operand := range ops {
		switch op {
		case "$gte", "$gt", "$lte", "$lt":
			c, ok := compare(value, operand)
			if !ok {
				return false
			}
			switch op {
			case "$gte":
				if c < 0 {
					return false
				}
			case "$gt":
				if c <= 0 {
					return false
				}
			case "$lte":
				if c > 0 {
					return false
				}
			case "$lt":
				if c >= 0 {
					return false
				}
			}
		case "$regex":
			s, ok := value.(string)
			if !ok {
				return false
			}
			pattern, _ := operand.(string)
			if opts, _ := ops["$options"].(string); strings.Contains(opts, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil || !re.MatchString(s) {
				return false
			}
		case "$options":
			// consumed by $regex
		case "$in":
			candidates, _ := operand.(bson.A)
			hit := false
			for _, c := range candidates {
				if equalOrContains(value, c) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func equalOrContains(value, want any) bool {
	if arr, ok := value.(bson.A); ok {
		for _, v := range arr {
			if c, ok := compare(v, want); ok && c == 0 {
				return true
			}
		}
		return false
	}
	c, ok := compare(value, want)
	return ok && c == 0
}

// Lookup resolves a possibly dotted path inside doc.
func Lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case bson.M:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range node {
				if e.Key == part {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

// SortDocs orders docs by the composite sort key, keeping the input order
// for ties. Missing values sort first in ascending order, as in MongoDB.
func SortDocs(docs []bson.M, sortDoc bson.D) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, e := range sortDoc {
			dir, _ := e.Value.(int)
			a, aok := Lookup(docs[i], e.Key)
			b, bok := Lookup(docs[j], e.Key)
			var c int
			switch {
			case !aok && !bok:
				c = 0
			case !aok:
				c = -1
			case !bok:
				c = 1
			default:
				c, _ = compare(a, b)
			}
			if c != 0 {
				if dir < 0 {
					return c > 0
				}
				return c < 0
			}
		}
		return false
	})
}

// Project applies an inclusion or exclusion projection. _id is always kept
// by inclusion projections.
func Project(doc bson.M, projection bson.M) bson.M {
	inclusive := false
	for _, v := range projection {
		if n, ok := v.(int); ok && n == 1 {
			inclusive = true
		}
		break
	}

	out := bson.M{}
	if inclusive {
		if id, ok := doc["_id"]; ok {
			out["_id"] = id
		}
		for k := range projection {
			if v, ok := doc[k]; ok {
				out[k] = v
			}
		}
		return out
	}
	for k, v := range doc {
		if _, hidden := projection[k]; hidden {
			continue
		}
		out[k] = v
	}
	return out
}

// compare orders two scalar values. ok is false when the types are not
// comparable.
func compare(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return cmp3(af < bf, af > bf), true
	}
	if at, ok := toTime(a); ok {
		bt, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return cmp3(at.Before(bt), at.After(bt)), true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return cmp3(!av && bv, av && !bv), true
	case primitive.ObjectID:
		bv, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Hex(), bv.Hex()), true
	}
	return 0, false
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}
