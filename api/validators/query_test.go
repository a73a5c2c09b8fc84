package validators

import (
	"net/http/httptest"
	"testing"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3&bad=abc&big=500", nil)

	if got, err := ParseQueryInt(r, "page", 1, 1, 100); err != nil || got != 3 {
		t.Fatalf("page = %d, err = %v", got, err)
	}
	if got, err := ParseQueryInt(r, "missing", 20, 1, 100); err != nil || got != 20 {
		t.Fatalf("default = %d, err = %v", got, err)
	}
	if _, err := ParseQueryInt(r, "bad", 1, 1, 100); err == nil {
		t.Fatal("non-numeric should error")
	}
	if _, err := ParseQueryInt(r, "big", 1, 1, 100); err == nil {
		t.Fatal("out of range should error")
	}
}

func TestParseQueryDate(t *testing.T) {
	r := httptest.NewRequest("GET", "/?from=2024-01-02&bad=01/02/2024", nil)

	got, err := ParseQueryDate(r, "from")
	if err != nil || got == nil {
		t.Fatalf("from: %v, %v", got, err)
	}
	if got.Year() != 2024 || got.Month() != 1 || got.Day() != 2 {
		t.Fatalf("parsed wrong date: %v", got)
	}
	if loc := got.Location().String(); loc != "UTC" {
		t.Fatalf("date should be UTC, got %s", loc)
	}
	if missing, err := ParseQueryDate(r, "to"); err != nil || missing != nil {
		t.Fatalf("absent date should be nil, got %v %v", missing, err)
	}
	if _, err := ParseQueryDate(r, "bad"); err == nil {
		t.Fatal("malformed date should error")
	}
}

func TestParseQueryDecimal(t *testing.T) {
	r := httptest.NewRequest("GET", "/?minTotal=10.50&bad=abc", nil)

	got, err := ParseQueryDecimal(r, "minTotal")
	if err != nil || got == nil || got.String() != "10.5" {
		t.Fatalf("minTotal: %v, %v", got, err)
	}
	if _, err := ParseQueryDecimal(r, "bad"); err == nil {
		t.Fatal("malformed decimal should error")
	}
}

func TestSplitQueryList(t *testing.T) {
	r := httptest.NewRequest("GET", "/?status=paid,%20pending,,shipped&empty=", nil)

	got := SplitQueryList(r, "status")
	want := []string{"paid", "pending", "shipped"}
	if len(got) != len(want) {
		t.Fatalf("list = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list = %v, want %v", got, want)
		}
	}
	if SplitQueryList(r, "empty") != nil {
		t.Fatal("empty param should yield nil")
	}
}
