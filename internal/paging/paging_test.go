package paging

import "testing"

func TestNormalize(t *testing.T) {
	limits := Limits{DefaultPageSize: 10, MaxPageSize: 50}

	tests := []struct {
		name string
		in   Query
		want Query
	}{
		{"zero values", Query{}, Query{Page: 1, PageSize: 10}},
		{"negative page", Query{Page: -3, PageSize: 5}, Query{Page: 1, PageSize: 5}},
		{"oversized", Query{Page: 2, PageSize: 500}, Query{Page: 2, PageSize: 50}},
		{"trims keyword", Query{Page: 1, PageSize: 1, Keyword: "  adm "}, Query{Page: 1, PageSize: 1, Keyword: "adm"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(limits); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	if !Match("", "anything") {
		t.Fatal("empty keyword must match")
	}
	if !Match("DEM", "demo", "Demo User") {
		t.Fatal("expected case-insensitive match")
	}
	if !Match("user", "demo", "Demo User") {
		t.Fatal("expected match on second field")
	}
	if Match("root", "demo", "Demo User") {
		t.Fatal("unexpected match")
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Slice(items, Query{Page: 2, PageSize: 2})
	if p.Total != 5 || len(p.List) != 2 || p.List[0] != 3 || p.List[1] != 4 {
		t.Fatalf("unexpected page: %+v", p)
	}

	p = Slice(items, Query{Page: 3, PageSize: 2})
	if len(p.List) != 1 || p.List[0] != 5 {
		t.Fatalf("unexpected last page: %+v", p)
	}

	p = Slice(items, Query{Page: 9, PageSize: 2})
	if p.List == nil || len(p.List) != 0 || p.Total != 5 {
		t.Fatalf("expected empty non-nil page past the end, got %+v", p)
	}
}

func TestSliceDoesNotAliasInput(t *testing.T) {
	items := []int{1, 2, 3}
	p := Slice(items, Query{Page: 1, PageSize: 3})
	p.List[0] = 99
	if items[0] != 1 {
		t.Fatal("page list must not alias the input slice")
	}
}
