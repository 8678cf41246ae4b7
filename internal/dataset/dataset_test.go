package dataset

import (
	"errors"
	"reflect"
	"testing"
)

func TestInferThreshold(t *testing.T) {
	cases := []struct {
		name string
		vals []string
		want Kind
	}{
		{"all numeric", []string{"1", "2.5", "-3", "1e3"}, Numeric},
		{"exactly 80 percent is categorical", []string{"1", "2", "3", "4", "x"}, Categorical},
		{"above 80 percent", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "x"}, Numeric},
		{"empties ignored", []string{"1", "", "2", "", "3"}, Numeric},
		{"all empty", []string{"", "", ""}, Categorical},
		{"no values", nil, Categorical},
		{"text", []string{"a", "b"}, Categorical},
		{"padded numbers", []string{" 12 ", "7\t"}, Numeric},
		{"infinity is not finite", []string{"Inf", "NaN", "1"}, Categorical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vals := make([]Value, len(tc.vals))
			for i, s := range tc.vals {
				vals[i] = Text(s)
			}
			got := Infer(vals)
			if got != tc.want {
				t.Fatalf("Infer(%q) = %s, want %s", tc.vals, got, tc.want)
			}
			if again := Infer(vals); again != got {
				t.Fatalf("Infer not idempotent: %s then %s", got, again)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	for name, want := range map[string]bool{
		"id":             true,
		"participant_ID": true,
		"video_minutes":  true,
		"age":            false,
		"gender":         false,
	} {
		if got := IsIdentifier(name); got != want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFromRecordsPadsAndInfers(t *testing.T) {
	tbl := FromRecords(
		[]string{"participant_id", "age", "group", "score"},
		[][]string{
			{"1", "20", "A", "3.5"},
			{"2", "30", "A"},
			{"3", "40", "B", "4.0", "extra"},
		},
	)
	if tbl.Len() != 3 {
		t.Fatalf("len = %d, want 3", tbl.Len())
	}
	if !tbl.Rows()[1].Get("score").IsMissing() {
		t.Fatalf("short row should pad with missing")
	}
	if got := tbl.Rows()[2].Get("score").String(); got != "4.0" {
		t.Fatalf("score = %q, want raw text 4.0", got)
	}
	if k, _ := tbl.Kind("age"); k != Numeric {
		t.Fatalf("age kind = %s", k)
	}
	if k, _ := tbl.Kind("group"); k != Categorical {
		t.Fatalf("group kind = %s", k)
	}
	if k, _ := tbl.Kind("participant_id"); k != Numeric {
		t.Fatalf("participant_id kind = %s", k)
	}
	if got := tbl.NumericColumns(); !reflect.DeepEqual(got, []string{"age", "score"}) {
		t.Fatalf("numeric columns = %v", got)
	}
	if got := tbl.CategoricalColumns(); !reflect.DeepEqual(got, []string{"group"}) {
		t.Fatalf("categorical columns = %v", got)
	}
	if _, err := tbl.Kind("nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestNewFillsMissingKeys(t *testing.T) {
	tbl := New([]string{"age", "group"}, []map[string]Value{
		{"age": Number(20), "group": Text("A")},
		{"age": Number(30)},
	})
	if !tbl.Rows()[1].Get("group").IsMissing() {
		t.Fatalf("absent key should be missing")
	}
	if got := tbl.Rows()[0].Get("age").String(); got != "20" {
		t.Fatalf("number string = %q", got)
	}
	if !tbl.Rows()[0].Get("unknown").IsMissing() {
		t.Fatalf("unknown column should be missing")
	}
}

func TestHeaderNormalization(t *testing.T) {
	tbl := FromRecords([]string{"\ufeffa", "a", "", "a"}, nil)
	want := []string{"a", "a_1", "column_3", "a_2"}
	if got := tbl.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
}

func TestUniqueValuesSorted(t *testing.T) {
	tbl := FromRecords([]string{"g"}, [][]string{{"b"}, {"a"}, {"b"}, {""}})
	want := []string{"", "a", "b"}
	if got := tbl.UniqueValues("g"); !reflect.DeepEqual(got, want) {
		t.Fatalf("unique = %q, want %q", got, want)
	}
}

func TestReloadGetsNewID(t *testing.T) {
	a := FromRecords([]string{"x"}, [][]string{{"1"}})
	b := FromRecords([]string{"x"}, [][]string{{"1"}})
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestValueFloat(t *testing.T) {
	if _, ok := Missing().Float(); ok {
		t.Fatalf("missing parsed")
	}
	if _, ok := Text("abc").Float(); ok {
		t.Fatalf("text parsed")
	}
	if f, ok := Text(" 2.5 ").Float(); !ok || f != 2.5 {
		t.Fatalf("got %v %v", f, ok)
	}
	if !Text("").IsMissing() {
		t.Fatalf("empty text should be missing")
	}
}

func TestValueKind(t *testing.T) {
	cases := map[ValueKind]Value{
		KindMissing: Text(""),
		KindText:    Text("a"),
		KindNumber:  Number(2),
	}
	for want, v := range cases {
		if got := v.Kind(); got != want {
			t.Fatalf("%#v kind = %d, want %d", v, got, want)
		}
	}
}

func TestRequireColumns(t *testing.T) {
	tbl := FromRecords([]string{"temp", "region"}, [][]string{{"1", "a"}, {"2", "b"}})
	if err := tbl.RequireNumeric("temp"); err != nil {
		t.Fatalf("temp: %v", err)
	}
	if err := tbl.RequireNumeric("region"); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("region err = %v", err)
	}
	if err := tbl.RequireNumeric("nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("nope err = %v", err)
	}
	if err := tbl.RequireColumn(""); err != nil {
		t.Fatalf("empty name: %v", err)
	}
	if err := tbl.RequireColumn("nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("unknown err = %v", err)
	}
}

func TestRequireCategorical(t *testing.T) {
	tbl := FromRecords([]string{"temp", "region", "site_id"},
		[][]string{{"1", "a", "s1"}, {"2", "b", "s2"}})
	if err := tbl.RequireCategorical("region"); err != nil {
		t.Fatalf("region: %v", err)
	}
	if err := tbl.RequireCategorical(""); err != nil {
		t.Fatalf("empty name: %v", err)
	}
	if err := tbl.RequireCategorical("temp"); !errors.Is(err, ErrNotCategorical) {
		t.Fatalf("temp err = %v", err)
	}
	if err := tbl.RequireCategorical("site_id"); !errors.Is(err, ErrNotCategorical) {
		t.Fatalf("site_id err = %v", err)
	}
	if err := tbl.RequireCategorical("nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("nope err = %v", err)
	}
}
