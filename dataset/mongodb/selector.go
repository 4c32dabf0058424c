package mongodb

import (
	"regexp"
	"strings"

	"gopkg.in/mgo.v2/bson"

	"github.com/hasbyte1/go-datamapper-utils/dataset"
	"github.com/hasbyte1/go-datamapper-utils/query"
)

// Selector translates scope conditions into a mongo find document.
// Conditions on distinct properties fold into one document; repeated
// properties wrap in $and so no predicate is lost.
func Selector(conds []query.Condition) bson.M {
	if len(conds) == 0 {
		return bson.M{}
	}

	clauses := make([]bson.M, len(conds))
	for i, c := range conds {
		clauses[i] = bson.M{c.Property: operand(c)}
	}

	out := bson.M{}
	var overflow []bson.M
	for _, clause := range clauses {
		conflict := false
		for property := range clause {
			if _, taken := out[property]; taken {
				conflict = true
			}
		}
		if conflict {
			overflow = append(overflow, clause)
			continue
		}
		for property, v := range clause {
			out[property] = v
		}
	}
	if overflow != nil {
		all := append([]bson.M{out}, overflow...)
		return bson.M{"$and": all}
	}
	return out
}

func operand(c query.Condition) any {
	switch c.Op {
	case query.Eq:
		return c.Value
	case query.Not:
		return bson.M{"$ne": c.Value}
	case query.Gt:
		return bson.M{"$gt": c.Value}
	case query.Gte:
		return bson.M{"$gte": c.Value}
	case query.Lt:
		return bson.M{"$lt": c.Value}
	case query.Lte:
		return bson.M{"$lte": c.Value}
	case query.In:
		return bson.M{"$in": c.Value}
	case query.Like:
		if pattern, ok := c.Value.(string); ok {
			return likeRegex(pattern)
		}
		return c.Value
	}
	return c.Value
}

// likeRegex converts a %-wildcard pattern into an anchored regular
// expression.
func likeRegex(pattern string) bson.RegEx {
	parts := strings.Split(pattern, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return bson.RegEx{Pattern: "^" + strings.Join(parts, ".*") + "$"}
}

// KeySelector pins a selector to the key tuples of the given rows: one
// document per row over the key properties, or-ed together. Used to turn a
// windowed bulk mutation into an exact keyed one.
func KeySelector(key []dataset.Property, rows []bson.M) bson.M {
	clauses := make([]bson.M, len(rows))
	for i, row := range rows {
		doc := make(bson.M, len(key))
		for _, p := range key {
			doc[p.Name] = row[p.Name]
		}
		clauses[i] = doc
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return bson.M{"$or": clauses}
}

// Projection translates a field list into a mongo projection document.
func Projection(fields []string) bson.M {
	out := make(bson.M, len(fields))
	for _, name := range fields {
		out[name] = 1
	}
	return out
}

// SortSpec translates sort directives into mgo sort strings
// ("name", "-created_at").
func SortSpec(order []query.Sort) []string {
	out := make([]string, len(order))
	for i, o := range order {
		if o.Descending {
			out[i] = "-" + o.Property
		} else {
			out[i] = o.Property
		}
	}
	return out
}
