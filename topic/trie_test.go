package topic

import (
	"sort"
	"testing"
)

func matchSet(t *testing.T, r *Router, topicName string) []string {
	t.Helper()
	got := r.Match(topicName)
	sort.Strings(got)
	return got
}

func TestRouterExactMatch(t *testing.T) {
	r := NewRouter()
	r.Add("a/b/c")
	if got := matchSet(t, r, "a/b/c"); len(got) != 1 || got[0] != "a/b/c" {
		t.Fatalf("expected [a/b/c], got %v", got)
	}
	if got := r.Match("a/b/d"); len(got) != 0 {
		t.Fatalf("expected no match, got %v", got)
	}
}

func TestRouterPlusWildcard(t *testing.T) {
	r := NewRouter()
	r.Add("sport/+/score")
	if got := matchSet(t, r, "sport/tennis/score"); len(got) != 1 || got[0] != "sport/+/score" {
		t.Fatalf("expected plus wildcard to match one level, got %v", got)
	}
	if got := r.Match("sport/tennis/player/score"); len(got) != 0 {
		t.Fatalf("+ must not match multiple levels, got %v", got)
	}
}

func TestRouterHashWildcard(t *testing.T) {
	r := NewRouter()
	r.Add("sport/#")
	for _, topicName := range []string{"sport", "sport/tennis", "sport/tennis/score/live"} {
		if got := matchSet(t, r, topicName); len(got) != 1 || got[0] != "sport/#" {
			t.Errorf("expected sport/# to match %q, got %v", topicName, got)
		}
	}
	if got := r.Match("other/tennis"); len(got) != 0 {
		t.Fatalf("sport/# must not match other namespaces, got %v", got)
	}
}

func TestRouterOverlappingFiltersAllMatch(t *testing.T) {
	r := NewRouter()
	r.Add("a/#")
	r.Add("a/b/+")
	r.Add("a/b/c")
	got := matchSet(t, r, "a/b/c")
	want := []string{"a/#", "a/b/+", "a/b/c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRouterDollarTopicsExcludedFromWildcards(t *testing.T) {
	r := NewRouter()
	r.Add("#")
	r.Add("+/config")
	r.Add("$SYS/broker/uptime")
	if got := r.Match("$SYS/broker/uptime"); len(got) != 1 || got[0] != "$SYS/broker/uptime" {
		t.Fatalf("expected only the explicit filter to match, got %v", got)
	}
	if got := r.Match("normal/topic"); len(got) != 1 || got[0] != "#" {
		t.Fatalf("expected # to still match non-$ topics, got %v", got)
	}
}

func TestRouterRemove(t *testing.T) {
	r := NewRouter()
	r.Add("a/b")
	if err := r.Remove("a/b"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if got := r.Match("a/b"); len(got) != 0 {
		t.Fatalf("expected no match after Remove, got %v", got)
	}
	if err := r.Remove("a/b"); err == nil {
		t.Error("Remove on an unregistered filter should error")
	}
}
