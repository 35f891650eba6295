package cast

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sambeau/viewscope/pkg/viewscope/errors"
)

func render(t *testing.T, r *Registry, typ string, raw any) string {
	t.Helper()
	f, err := r.Cast(typ, "Field", raw)
	if err != nil {
		t.Fatalf("Cast(%s): %v", typ, err)
	}
	return f.ForTemplate()
}

func call(t *testing.T, f *Field, method string, args ...any) any {
	t.Helper()
	v, found, err := f.TryResolve(method, args)
	if err != nil {
		t.Fatalf("%s.%s: %v", f.TypeName(), method, err)
	}
	if !found {
		t.Fatalf("%s.%s not found", f.TypeName(), method)
	}
	return v
}

func TestText(t *testing.T) {
	r := NewRegistry()
	f, _ := r.Cast("Text", "Title", `<b>Fish & "Chips"</b>`)

	if got, want := f.ForTemplate(), "&lt;b&gt;Fish &amp; &#34;Chips&#34;&lt;/b&gt;"; got != want {
		t.Errorf("ForTemplate() = %q, want %q", got, want)
	}
	if got := call(t, f, "RAW"); got != `<b>Fish & "Chips"</b>` {
		t.Errorf("RAW = %q", got)
	}
	if f.CastingFor("RAW") != "HTMLText" {
		t.Error("RAW results should be cast as HTMLText")
	}
	if f.Name() != "Title" || f.TypeName() != "Text" {
		t.Errorf("Name/TypeName = %q/%q", f.Name(), f.TypeName())
	}

	words, _ := r.Cast("Varchar", "Intro", "one two three four")
	if got := call(t, words, "LimitWordCount", 2); got != "one two..." {
		t.Errorf("LimitWordCount = %q", got)
	}
	if got := call(t, words, "LimitCharacters", "7", "~"); got != "one two~" {
		t.Errorf("LimitCharacters = %q", got)
	}
	if got := call(t, words, "UpperCase"); got != "ONE TWO THREE FOUR" {
		t.Errorf("UpperCase = %q", got)
	}
	if words.TypeName() != "Varchar" {
		t.Errorf("TypeName = %q, want Varchar", words.TypeName())
	}

	if _, _, err := words.TryResolve("LimitCharacters", []any{"many"}); err == nil {
		t.Error("expected argument type error")
	}

	empty, _ := r.Cast("Text", "Empty", nil)
	if empty.Exists() {
		t.Error("nil text should not exist")
	}
}

func TestHTMLText(t *testing.T) {
	r := NewRegistry()
	src := "<p>Hello <b>there</b></p><p>General Kenobi. You are bold.</p>"
	f, _ := r.Cast("HTMLText", "Content", src)

	if f.ForTemplate() != src {
		t.Errorf("HTMLText should render unescaped, got %q", f.ForTemplate())
	}
	if got := call(t, f, "Plain"); got != "Hello there General Kenobi. You are bold." {
		t.Errorf("Plain = %q", got)
	}
	if got := call(t, f, "Summary", 3); got != "Hello there General..." {
		t.Errorf("Summary = %q", got)
	}
	if got := call(t, f, "FirstSentence"); got != "Hello there General Kenobi." {
		t.Errorf("FirstSentence = %q", got)
	}
}

func TestBoolean(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		raw    any
		render string
		nice   string
	}{
		{true, "1", "yes"},
		{false, "0", "no"},
		{"true", "1", "yes"},
		{"0", "0", "no"},
		{1, "1", "yes"},
	}
	for _, tt := range tests {
		f, _ := r.Cast("Boolean", "Flag", tt.raw)
		if got := f.ForTemplate(); got != tt.render {
			t.Errorf("Boolean(%v).ForTemplate() = %q, want %q", tt.raw, got, tt.render)
		}
		if got := call(t, f, "Nice"); got != tt.nice {
			t.Errorf("Boolean(%v).Nice = %q, want %q", tt.raw, got, tt.nice)
		}
	}
}

func TestNumbers(t *testing.T) {
	us := NewRegistry(WithLocale("en_US"))
	de := NewRegistry(WithLocale("de_DE"))

	if got := render(t, us, "Int", 1234567); got != "1234567" {
		t.Errorf("Int render = %q", got)
	}
	i, _ := us.Cast("Int", "Count", 1234567)
	if got := call(t, i, "Nice"); got != "1,234,567" {
		t.Errorf("en_US Nice = %q", got)
	}
	i, _ = de.Cast("Int", "Count", "1234567")
	if got := call(t, i, "Nice"); got != "1.234.567" {
		t.Errorf("de_DE Nice = %q", got)
	}

	times, _ := us.Cast("Int", "N", 3)
	list := call(t, times, "Times")
	if diff := cmp.Diff(3, list.(interface{ Len() int }).Len()); diff != "" {
		t.Errorf("Times length mismatch (-want +got):\n%s", diff)
	}

	if got := render(t, us, "Decimal", 3.14159); got != "3.14" {
		t.Errorf("Decimal render = %q", got)
	}

	cur := render(t, NewRegistry(WithCurrency("USD")), "Currency", 12.5)
	if !strings.Contains(cur, "$") || !strings.Contains(cur, "12.50") {
		t.Errorf("Currency render = %q, want dollar amount", cur)
	}

	pct := render(t, us, "Percentage", 0.25)
	if !strings.Contains(pct, "25") || !strings.Contains(pct, "%") {
		t.Errorf("Percentage render = %q", pct)
	}

	zero, _ := us.Cast("Int", "Zero", 0)
	if zero.Exists() {
		t.Error("zero Int should not exist")
	}
}

func TestDate(t *testing.T) {
	gb := NewRegistry(WithLocale("en_GB"))
	us := NewRegistry(WithLocale("en_US"))

	if got := render(t, gb, "Date", "2024-03-05"); got != "05/03/2024" {
		t.Errorf("en_GB Date = %q", got)
	}
	if got := render(t, us, "Date", "2024-03-05"); got != "3/5/2024" {
		t.Errorf("en_US Date = %q", got)
	}

	d, _ := gb.Cast("Date", "Created", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC))
	tests := map[string]string{
		"Long":       "5 March 2024",
		"Year":       "2024",
		"Month":      "March",
		"DayOfMonth": "5",
		"Day":        "Tuesday",
		"Rfc3339":    "2024-03-05T14:30:00Z",
	}
	for method, want := range tests {
		if got := call(t, d, method); got != want {
			t.Errorf("Date.%s = %q, want %q", method, got, want)
		}
	}
	if got := call(t, d, "Format", "2006"); got != "2024" {
		t.Errorf("Format = %q", got)
	}

	dt, _ := gb.Cast("Datetime", "Created", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC))
	if got := dt.ForTemplate(); got != "05/03/2024 14:30" {
		t.Errorf("Datetime render = %q", got)
	}

	none, _ := gb.Cast("Date", "Missing", "")
	if none.Exists() || none.ForTemplate() != "" {
		t.Errorf("empty date should not exist, rendered %q", none.ForTemplate())
	}
}

func TestMarkdown(t *testing.T) {
	r := NewRegistry()
	f, _ := r.Cast("Markdown", "Body", "# Title\n\nSome *text*.")
	html := f.ForTemplate()
	if !strings.Contains(html, "<h1>Title</h1>") || !strings.Contains(html, "<em>text</em>") {
		t.Errorf("Markdown render = %q", html)
	}
	if got := call(t, f, "Plain"); got != "Title Some text." {
		t.Errorf("Plain = %q", got)
	}
}

func TestRegistry_UnknownCast(t *testing.T) {
	r := NewRegistry()
	_, err := r.New("Money", "Price")
	if !stderrors.Is(err, errors.ErrUnknownCast) {
		t.Errorf("New(Money) error = %v, want ErrUnknownCast", err)
	}
	if r.Has("Money") {
		t.Error("Money should not be registered")
	}

	r.Register("Money", newCurrency)
	if !r.Has("Money") {
		t.Error("Money should be registered")
	}
	f, err := r.New("Money", "Price")
	if err != nil || f.TypeName() != "Money" {
		t.Errorf("New(Money) = %v, %v", f, err)
	}
}
