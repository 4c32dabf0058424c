package dataset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hasbyte1/go-datamapper-utils/dataset"
	"github.com/hasbyte1/go-datamapper-utils/dataset/inmemory"
	"github.com/hasbyte1/go-datamapper-utils/query"
)

func TestPropertyTypecast(t *testing.T) {
	cases := []struct {
		name string
		prop dataset.Property
		in   any
		want any
	}{
		{"int widens", dataset.Property{Name: "n", Kind: dataset.KindInt}, 7, int64(7)},
		{"int from string", dataset.Property{Name: "n", Kind: dataset.KindInt}, "42", int64(42)},
		{"float from int", dataset.Property{Name: "f", Kind: dataset.KindFloat}, 3, float64(3)},
		{"string passthrough", dataset.Property{Name: "s", Kind: dataset.KindString}, "x", "x"},
		{"string from any", dataset.Property{Name: "s", Kind: dataset.KindString}, 10, "10"},
		{"bool from string", dataset.Property{Name: "b", Kind: dataset.KindBool}, "true", true},
		{"any passthrough", dataset.Property{Name: "a", Kind: dataset.KindAny}, []int{1}, []int{1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.prop.Typecast(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			switch want := tc.want.(type) {
			case []int:
				// reference equality is enough for the passthrough case
				if _, ok := got.([]int); !ok {
					t.Fatalf("got %T", got)
				}
			default:
				if got != want {
					t.Fatalf("got %v (%T), want %v (%T)", got, got, want, want)
				}
			}
		})
	}
}

func TestPropertyTypecastTime(t *testing.T) {
	p := dataset.Property{Name: "at", Kind: dataset.KindTime}
	got, err := p.Typecast("2026-08-25T10:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Fatalf("got %v", got)
	}
}

func TestPropertyTypecastRejectsGarbage(t *testing.T) {
	p := dataset.Property{Name: "n", Kind: dataset.KindInt}
	if _, err := p.Typecast("seven"); err == nil {
		t.Fatal("expected a cast error")
	}
	if _, err := p.Typecast(struct{}{}); err == nil {
		t.Fatal("expected a cast error")
	}
}

func TestTypecastKey(t *testing.T) {
	repo := inmemory.New()
	model := dataset.NewDefinition("things", repo,
		dataset.Property{Name: "id", Kind: dataset.KindInt, Key: true})

	tuple, err := model.TypecastKey("5")
	if err != nil {
		t.Fatal(err)
	}
	if len(tuple) != 1 || tuple[0] != int64(5) {
		t.Fatalf("got %v", tuple)
	}

	if _, err := model.TypecastKey(); !errors.Is(err, dataset.ErrKeyMismatch) {
		t.Fatalf("empty tuple: got %v", err)
	}
	if _, err := model.TypecastKey(1, 2); !errors.Is(err, dataset.ErrKeyMismatch) {
		t.Fatalf("wrong arity: got %v", err)
	}
	if _, err := model.TypecastKey("x"); !errors.Is(err, dataset.ErrKeyMismatch) {
		t.Fatalf("uncastable value: got %v", err)
	}
}

func TestLoadReusesIdentityMappedInstance(t *testing.T) {
	repo := inmemory.New()
	model := dataset.NewDefinition("things", repo,
		dataset.Property{Name: "id", Kind: dataset.KindInt, Key: true},
		dataset.Property{Name: "name", Kind: dataset.KindString})
	s := query.New("things")

	first := model.Load(map[string]any{"id": 1, "name": "old"}, s)
	second := model.Load(map[string]any{"id": 1, "name": "new"}, s)

	if first != second {
		t.Fatal("the same key must resolve to the same instance")
	}
	if v, _ := first.Get("name"); v != "new" {
		t.Fatalf("reload must refresh values, got %v", v)
	}
	if len(first.Dirty()) != 0 {
		t.Fatal("refreshed values are persisted, not dirty")
	}
	// "1" and 1 typecast to the same canonical key.
	third := model.Load(map[string]any{"id": "1"}, s)
	if third != first {
		t.Fatal("equivalent raw keys must resolve to the same instance")
	}
}

func TestLoadWithoutKeyBypassesIdentityMap(t *testing.T) {
	repo := inmemory.New()
	model := dataset.NewDefinition("things", repo,
		dataset.Property{Name: "id", Kind: dataset.KindInt, Key: true})
	s := query.New("things")

	a := model.Load(map[string]any{"name": "keyless"}, s)
	b := model.Load(map[string]any{"name": "keyless"}, s)
	if a == b {
		t.Fatal("keyless rows must load as distinct records")
	}
	if repo.IdentityMap("things").Len() != 0 {
		t.Fatal("keyless rows must not enter the identity map")
	}
}

func TestDefinitionCreate(t *testing.T) {
	repo := inmemory.New()
	model := dataset.NewDefinition("things", repo,
		dataset.Property{Name: "id", Kind: dataset.KindString, Key: true, Serial: true},
		dataset.Property{Name: "name", Kind: dataset.KindString})
	repo.Register(model)

	r, err := model.Create(context.Background(), map[string]any{"name": "widget"})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Saved() {
		t.Fatal("created record must be saved")
	}
	id, ok := r.Get("id")
	if !ok || id == nil || id == "" {
		t.Fatalf("serial key must be assigned on insert, got %v", id)
	}
	if len(r.Dirty()) != 0 {
		t.Fatal("a freshly created record is clean")
	}
	if repo.IdentityMap("things").Len() != 1 {
		t.Fatal("created record must enter the identity map")
	}
}

func TestCreateRequiresInserter(t *testing.T) {
	repo := readOnlyRepo{}
	model := dataset.NewDefinition("things", repo,
		dataset.Property{Name: "id", Kind: dataset.KindInt, Key: true})

	if _, err := model.Create(context.Background(), map[string]any{"id": 1}); !errors.Is(err, dataset.ErrNoInserter) {
		t.Fatalf("got %v, want ErrNoInserter", err)
	}
}

// readOnlyRepo satisfies Repository but not Inserter.
type readOnlyRepo struct{}

func (readOnlyRepo) Name() string { return "readonly" }
func (readOnlyRepo) ReadMany(context.Context, query.Scope) ([]*dataset.Record, error) {
	return nil, nil
}
func (readOnlyRepo) ReadOne(context.Context, query.Scope) (*dataset.Record, error) {
	return nil, nil
}
func (readOnlyRepo) Update(context.Context, map[string]any, query.Scope) (int, error) {
	return 0, nil
}
func (readOnlyRepo) Delete(context.Context, query.Scope) (int, error) { return 0, nil }
func (readOnlyRepo) IdentityMap(string) *dataset.IdentityMap          { return dataset.NewIdentityMap() }
