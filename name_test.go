package metrics_test

import (
	"errors"
	"testing"

	"github.com/kitmetrics/metrics"
)

func TestBuildSkipsEmptyParts(t *testing.T) {
	if want, have := "a.b.c", metrics.Build("a", "", "b", "c").Key(); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if !metrics.Build().IsEmpty() {
		t.Errorf("want empty name")
	}
}

func TestResolveKeepsTags(t *testing.T) {
	base, err := metrics.Build("http").Tagged("method", "GET")
	if err != nil {
		t.Fatal(err)
	}
	name := base.Resolve("requests")
	if want, have := "http.requests", name.Key(); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if want, have := "GET", name.Tags()["method"]; want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if want, have := "http", base.Key(); want != have {
		t.Errorf("receiver changed: want %q, have %q", want, have)
	}
}

func TestTaggedRejectsOddPairs(t *testing.T) {
	_, err := metrics.Build("x").Tagged("a", "b", "c")
	if !errors.Is(err, metrics.ErrInvalidArgument) {
		t.Errorf("want ErrInvalidArgument, have %v", err)
	}
}

func TestTagOrderIsIrrelevant(t *testing.T) {
	a, _ := metrics.Build("x").Tagged("a", "1", "b", "2")
	b, _ := metrics.Build("x").Tagged("b", "2", "a", "1")
	if a != b {
		t.Errorf("want %v == %v", a, b)
	}
	if want, have := 0, metrics.Compare(a, b); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	m := map[metrics.Name]int{a: 1}
	if want, have := 1, m[b]; want != have {
		t.Errorf("map lookup: want %d, have %d", want, have)
	}
}

func TestTagsParticipateInEquality(t *testing.T) {
	plain := metrics.Build("x")
	tagged := plain.WithTags(map[string]string{"a": "1"})
	if plain == tagged {
		t.Errorf("want %v != %v", plain, tagged)
	}
	if want, have := -1, metrics.Compare(plain, tagged); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	if want, have := 1, metrics.Compare(tagged, plain); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
}

func TestCompareOrdersByKeyFirst(t *testing.T) {
	a := metrics.Build("a").WithTags(map[string]string{"z": "z"})
	b := metrics.Build("b")
	if want, have := -1, metrics.Compare(a, b); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
}

func TestJoinLastTagWins(t *testing.T) {
	a := metrics.Build("a").WithTags(map[string]string{"env": "dev", "x": "1"})
	b := metrics.Build("b").WithTags(map[string]string{"env": "prod"})
	joined := metrics.Join(a, metrics.Empty, b)
	if want, have := "a.b", joined.Key(); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if want, have := "a.b{env=prod,x=1}", joined.String(); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
}

func TestTagsSurviveAwkwardCharacters(t *testing.T) {
	name, err := metrics.Build("x").Tagged(`k"1`, `v=,{}`, "", "empty")
	if err != nil {
		t.Fatal(err)
	}
	tags := name.Tags()
	if want, have := `v=,{}`, tags[`k"1`]; want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if want, have := "empty", tags[""]; want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if want, have := 2, len(tags); want != have {
		t.Errorf("want %d tags, have %d", want, have)
	}
}

func TestTagsReturnsCopy(t *testing.T) {
	name := metrics.Build("x").WithTags(map[string]string{"a": "1"})
	name.Tags()["a"] = "2"
	if want, have := "1", name.Tags()["a"]; want != have {
		t.Errorf("want %q, have %q", want, have)
	}
}
