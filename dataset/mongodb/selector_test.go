package mongodb_test

import (
	"reflect"
	"testing"

	"gopkg.in/mgo.v2/bson"

	"github.com/hasbyte1/go-datamapper-utils/dataset"
	"github.com/hasbyte1/go-datamapper-utils/dataset/mongodb"
	"github.com/hasbyte1/go-datamapper-utils/query"
)

func TestSelectorOperators(t *testing.T) {
	cases := []struct {
		name string
		cond query.Condition
		want bson.M
	}{
		{"eq", query.Condition{Op: query.Eq, Property: "name", Value: "alice"},
			bson.M{"name": "alice"}},
		{"not", query.Condition{Op: query.Not, Property: "name", Value: "alice"},
			bson.M{"name": bson.M{"$ne": "alice"}}},
		{"gt", query.Condition{Op: query.Gt, Property: "age", Value: 21},
			bson.M{"age": bson.M{"$gt": 21}}},
		{"gte", query.Condition{Op: query.Gte, Property: "age", Value: 21},
			bson.M{"age": bson.M{"$gte": 21}}},
		{"lt", query.Condition{Op: query.Lt, Property: "age", Value: 21},
			bson.M{"age": bson.M{"$lt": 21}}},
		{"lte", query.Condition{Op: query.Lte, Property: "age", Value: 21},
			bson.M{"age": bson.M{"$lte": 21}}},
		{"in", query.Condition{Op: query.In, Property: "id", Value: []any{1, 2}},
			bson.M{"id": bson.M{"$in": []any{1, 2}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mongodb.Selector([]query.Condition{tc.cond})
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelectorEmpty(t *testing.T) {
	if got := mongodb.Selector(nil); len(got) != 0 {
		t.Fatalf("got %v, want an empty document", got)
	}
}

func TestSelectorFoldsDistinctProperties(t *testing.T) {
	got := mongodb.Selector([]query.Condition{
		{Op: query.Eq, Property: "role", Value: "admin"},
		{Op: query.Gt, Property: "age", Value: 21},
	})
	want := bson.M{
		"role": "admin",
		"age":  bson.M{"$gt": 21},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSelectorRepeatedPropertyUsesAnd(t *testing.T) {
	got := mongodb.Selector([]query.Condition{
		{Op: query.Gte, Property: "age", Value: 18},
		{Op: query.Lt, Property: "age", Value: 65},
	})
	want := bson.M{"$and": []bson.M{
		{"age": bson.M{"$gte": 18}},
		{"age": bson.M{"$lt": 65}},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSelectorLike(t *testing.T) {
	got := mongodb.Selector([]query.Condition{
		{Op: query.Like, Property: "name", Value: "car%"},
	})
	re, ok := got["name"].(bson.RegEx)
	if !ok {
		t.Fatalf("got %T, want a regex operand", got["name"])
	}
	if re.Pattern != "^car.*$" {
		t.Fatalf("pattern: got %q", re.Pattern)
	}

	got = mongodb.Selector([]query.Condition{
		{Op: query.Like, Property: "path", Value: "a.b%c"},
	})
	re = got["path"].(bson.RegEx)
	if re.Pattern != `^a\.b.*c$` {
		t.Fatalf("metacharacters must be quoted, got %q", re.Pattern)
	}
}

func TestKeySelectorSingleRow(t *testing.T) {
	key := []dataset.Property{{Name: "id", Kind: dataset.KindInt, Key: true}}
	got := mongodb.KeySelector(key, []bson.M{{"id": 7}})
	want := bson.M{"id": 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestKeySelectorManyRows(t *testing.T) {
	key := []dataset.Property{{Name: "id", Kind: dataset.KindInt, Key: true}}
	got := mongodb.KeySelector(key, []bson.M{{"id": 1}, {"id": 2}})
	want := bson.M{"$or": []bson.M{{"id": 1}, {"id": 2}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestKeySelectorCompositeKey(t *testing.T) {
	key := []dataset.Property{
		{Name: "tenant", Kind: dataset.KindString, Key: true},
		{Name: "seq", Kind: dataset.KindInt, Key: true},
	}
	got := mongodb.KeySelector(key, []bson.M{
		{"tenant": "a", "seq": 1, "ignored": true},
		{"tenant": "b", "seq": 2},
	})
	want := bson.M{"$or": []bson.M{
		{"tenant": "a", "seq": 1},
		{"tenant": "b", "seq": 2},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestProjection(t *testing.T) {
	got := mongodb.Projection([]string{"id", "name"})
	want := bson.M{"id": 1, "name": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSortSpec(t *testing.T) {
	got := mongodb.SortSpec([]query.Sort{
		{Property: "name"},
		{Property: "created_at", Descending: true},
	})
	want := []string{"name", "-created_at"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
