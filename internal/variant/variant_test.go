package variant

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/dictionary"
	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/normalize"
	"github.com/safebuy/recallguard/internal/storage"
)

type fakeGenerator struct {
	variants []string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, original string, field normalize.Field) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]string{original}, f.variants...), nil
}

func newTestDictionary(t *testing.T) *dictionary.Cache {
	t.Helper()
	store := storage.NewMemoryStore()
	err := store.UpsertRecords(context.Background(), []*models.RecallRecord{
		{RecallSN: "R-1", ProductName: "유아용침대", Manufacturer: "Sunnybury Baby Products", ModelName: "MC676"},
		{RecallSN: "R-2", ProductName: "전기주전자", Manufacturer: "Acme Appliances", ModelName: "EK-200"},
	})
	if err != nil {
		t.Fatal(err)
	}
	dict := dictionary.NewCache(store, zap.NewNop())
	if err := dict.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return dict
}

func TestTTLCache_ExpiresLazily(t *testing.T) {
	c := newTTLCache(time.Minute, 100)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.set("k", []string{"v"})
	if _, ok := c.get("k"); !ok {
		t.Fatal("fresh entry should be present")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok := c.get("k"); ok {
		t.Error("expired entry should be gone")
	}
	if c.len() != 0 {
		t.Errorf("len = %d, want 0 after lazy eviction", c.len())
	}
}

func TestTTLCache_ClearsOnOverflow(t *testing.T) {
	c := newTTLCache(time.Minute, 2)
	c.set("a", nil)
	c.set("b", nil)
	c.set("c", nil)
	// Fourth insert sees len 3 > cap 2 and wipes the map first.
	c.set("d", []string{"x"})

	if c.len() != 1 {
		t.Errorf("len = %d, want 1 after clear", c.len())
	}
	if _, ok := c.get("a"); ok {
		t.Error("old entries should be gone after clear")
	}
	if v, ok := c.get("d"); !ok || len(v) != 1 {
		t.Error("entry written after clear must survive")
	}
}

func TestExpand_VetsAgainstDictionary(t *testing.T) {
	gen := &fakeGenerator{variants: []string{"아기침대", "유아침대", "전혀다른것"}}
	f := NewFilter(newTestDictionary(t), gen, zap.NewNop())

	got := f.Expand(context.Background(), "유아용침대", normalize.FieldProduct)
	// Only the exact dictionary entry survives; fabricated variants are dropped.
	if len(got) != 1 || got[0] != "유아용침대" {
		t.Errorf("Expand = %v, want [유아용침대]", got)
	}
}

func TestExpand_GeneratorFailureDegradesToOriginal(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend down")}
	f := NewFilter(newTestDictionary(t), gen, zap.NewNop())

	got := f.Expand(context.Background(), "MC676", normalize.FieldModel)
	if len(got) != 1 || got[0] != "mc676" {
		t.Errorf("Expand = %v, want the original alone", got)
	}
}

func TestExpand_WeakOriginalReturnsNil(t *testing.T) {
	gen := &fakeGenerator{}
	f := NewFilter(newTestDictionary(t), gen, zap.NewNop())

	if got := f.Expand(context.Background(), "a", normalize.FieldProduct); got != nil {
		t.Errorf("Expand(weak) = %v, want nil", got)
	}
	if gen.calls != 0 {
		t.Error("weak input must not reach the generator")
	}
}

func TestExpand_CachesPerFieldAndTerm(t *testing.T) {
	gen := &fakeGenerator{}
	f := NewFilter(newTestDictionary(t), gen, zap.NewNop())
	ctx := context.Background()

	f.Expand(ctx, "유아용침대", normalize.FieldProduct)
	f.Expand(ctx, "유아용침대", normalize.FieldProduct)
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}

	// Same text on a different field is a different cache key.
	f.Expand(ctx, "유아용침대", normalize.FieldManufacturer)
	if gen.calls != 2 {
		t.Errorf("generator called %d times, want 2", gen.calls)
	}
}

func TestExpand_NilGenerator(t *testing.T) {
	f := NewFilter(newTestDictionary(t), nil, zap.NewNop())

	got := f.Expand(context.Background(), "EK-200", normalize.FieldModel)
	if len(got) != 1 || got[0] != "ek-200" {
		t.Errorf("Expand = %v, want the original alone", got)
	}
}

func TestClean_DropsPlaceholdersAndDupes(t *testing.T) {
	f := NewFilter(newTestDictionary(t), nil, zap.NewNop())

	got := f.clean([]string{"정보 없음", "N/A", "unknown", "유아용침대", "유아용침대", "  ", "ㄱㄴ"}, normalize.FieldProduct)
	if len(got) != 1 || got[0] != "유아용침대" {
		t.Errorf("clean = %v, want [유아용침대]", got)
	}
}

func TestExpandRaw_SkipsDictionaryGate(t *testing.T) {
	gen := &fakeGenerator{variants: []string{"전혀다른것"}}
	f := NewFilter(newTestDictionary(t), gen, zap.NewNop())

	got := f.ExpandRaw(context.Background(), "전혀다른것", normalize.FieldProduct)
	if len(got) != 1 || got[0] != "전혀다른것" {
		t.Errorf("ExpandRaw = %v, want the cleaned variant even though the dictionary has no hit", got)
	}
}

func TestParseVariantList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"plain array", `["아기침대", "유아침대"]`, []string{"아기침대", "유아침대"}},
		{"code fence", "```json\n[\"아기침대\"]\n```", []string{"아기침대"}},
		{"prose around array", `Here you go: ["유모차"] hope that helps`, []string{"유모차"}},
		{"single value fallback", `"유모차"`, []string{"유모차"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseVariantList(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("parseVariantList = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("element %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
