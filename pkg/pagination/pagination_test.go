package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Page: 1, PageSize: DefaultPageSize}},
		{"negative page", Params{Page: -2, PageSize: 10}, Params{Page: 1, PageSize: 10}},
		{"cap page size", Params{Page: 3, PageSize: 500}, Params{Page: 3, PageSize: MaxPageSize}},
		{"passthrough", Params{Page: 2, PageSize: 50}, Params{Page: 2, PageSize: 50}},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("%s: Normalize(%+v) = %+v, want %+v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestOffsetAndLimit(t *testing.T) {
	p := Params{Page: 3, PageSize: 20}
	if p.Offset() != 40 {
		t.Fatalf("offset = %d", p.Offset())
	}
	if p.Limit() != 20 {
		t.Fatalf("limit = %d", p.Limit())
	}

	zero := Params{}
	if zero.Offset() != 0 || zero.Limit() != DefaultPageSize {
		t.Fatalf("zero params: offset=%d limit=%d", zero.Offset(), zero.Limit())
	}
}
