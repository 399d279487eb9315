// Package query turns list-endpoint query parameters into a structured
// query (filter, search, sort, projection, pagination) that can run against
// MongoDB or be evaluated in memory.
package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
)

// Parameters that drive the query shape and are never used as filters.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
	"search": true,
	"lang":   true,
}

// SearchFields are the bilingual title attributes matched by ?search=.
var SearchFields = []string{"title_en", "title_ar", "name_en", "name_ar"}

var rangeOperators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

var rangeKey = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]+)\]$`)

var numericLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Query is the structured description of a list request.
type Query struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.M
	Page       int64
	Limit      int64
}

// Build applies the filter, search, sort, projection and pagination stages
// in that order. params is never modified.
func Build(params url.Values) (*Query, error) {
	filter, err := buildFilter(params)
	if err != nil {
		return nil, err
	}
	applySearch(filter, params.Get("search"))

	projection, err := buildProjection(params.Get("fields"))
	if err != nil {
		return nil, err
	}

	page, limit := parsePagination(params.Get("page"), params.Get("limit"))
	return &Query{
		Filter:     filter,
		Sort:       buildSort(params.Get("sort")),
		Projection: projection,
		Page:       page,
		Limit:      limit,
	}, nil
}

// Skip is the number of matched records before the page window.
func (q *Query) Skip() int64 {
	return (q.Page - 1) * q.Limit
}

func (q *Query) Pagination() models.Pagination {
	return models.Pagination{Page: q.Page, Limit: q.Limit}
}

// FindOptions renders the non-filter stages for the MongoDB driver.
func (q *Query) FindOptions() *options.FindOptions {
	return options.Find().
		SetSort(q.Sort).
		SetProjection(q.Projection).
		SetSkip(q.Skip()).
		SetLimit(q.Limit)
}

func buildFilter(params url.Values) (bson.M, error) {
	filter := bson.M{}

	// Sorted keys keep error reporting deterministic.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		value := params.Get(key)

		if strings.HasPrefix(key, "$") {
			return nil, domain.Validation("INVALID_FILTER", "operator %q is not allowed as a filter", key)
		}
		if strings.ContainsAny(key, "[]") {
			if err := addRange(filter, key, value); err != nil {
				return nil, err
			}
			continue
		}

		switch key {
		case models.FieldStatus:
			if value != "" {
				filter[key] = value
			}
		case models.FieldFeatured:
			if value == "true" {
				filter[key] = true
			}
		default:
			if value == "" {
				continue
			}
			if _, isRange := filter[key].(bson.M); isRange {
				return nil, domain.Validation("INVALID_FILTER", "cannot combine equality and range filters on %q", key)
			}
			filter[key] = equalityValue(value)
		}
	}
	return filter, nil
}

func addRange(filter bson.M, key, value string) error {
	m := rangeKey.FindStringSubmatch(key)
	if m == nil {
		return domain.Validation("INVALID_FILTER", "malformed filter parameter %q", key)
	}
	field, op := m[1], m[2]
	mongoOp, ok := rangeOperators[op]
	if !ok {
		return domain.Validation("INVALID_FILTER", "unsupported operator %q in %q", op, key)
	}
	operand, err := rangeOperand(value)
	if err != nil {
		return domain.Validation("INVALID_FILTER", "invalid value %q for %q", value, key)
	}

	switch existing := filter[field].(type) {
	case nil:
		filter[field] = bson.M{mongoOp: operand}
	case bson.M:
		if _, equality := existing["$in"]; equality {
			return domain.Validation("INVALID_FILTER", "cannot combine equality and range filters on %q", field)
		}
		existing[mongoOp] = operand
	default:
		return domain.Validation("INVALID_FILTER", "cannot combine equality and range filters on %q", field)
	}
	return nil
}

func rangeOperand(value string) (any, error) {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// equalityValue lets reference filters such as ?category=<id> match the
// ObjectID stored on the record. Boolean and numeric literals match either
// the typed value or the same text stored as a string.
func equalityValue(value string) any {
	if len(value) == 24 {
		if oid, err := primitive.ObjectIDFromHex(value); err == nil {
			return oid
		}
	}
	switch {
	case value == "true" || value == "false":
		return bson.M{"$in": bson.A{value, value == "true"}}
	case numericLiteral.MatchString(value):
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return bson.M{"$in": bson.A{value, f}}
		}
	}
	return value
}

func applySearch(filter bson.M, term string) {
	if term == "" {
		return
	}
	pattern := regexp.QuoteMeta(term)
	or := make(bson.A, 0, len(SearchFields))
	for _, f := range SearchFields {
		or = append(or, bson.M{f: bson.M{"$regex": pattern, "$options": "i"}})
	}
	filter["$or"] = or
}

func buildSort(raw string) bson.D {
	var sortDoc bson.D
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key == "" || key == "-" {
			continue
		}
		dir := 1
		if strings.HasPrefix(key, "-") {
			dir = -1
			key = key[1:]
		}
		sortDoc = append(sortDoc, bson.E{Key: key, Value: dir})
	}
	if len(sortDoc) == 0 {
		return bson.D{{Key: models.FieldCreatedAt, Value: -1}}
	}
	return sortDoc
}

func buildProjection(raw string) (bson.M, error) {
	projection := bson.M{}
	include, exclude := false, false
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if strings.HasPrefix(f, "-") {
			exclude = true
			projection[f[1:]] = 0
		} else {
			include = true
			projection[f] = 1
		}
	}
	if include && exclude {
		return nil, domain.Validation("INVALID_FIELDS", "fields cannot mix inclusions and exclusions")
	}
	if len(projection) == 0 {
		return bson.M{models.FieldVersion: 0}, nil
	}
	return projection, nil
}

func parsePagination(rawPage, rawLimit string) (int64, int64) {
	page, err := strconv.ParseInt(rawPage, 10, 64)
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.ParseInt(rawLimit, 10, 64)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	// keeps (page-1)*limit within int64
	if maxPage := math.MaxInt64 / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}
