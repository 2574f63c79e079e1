package sanitize

import (
	"testing"
)

func TestMaskEmailInQueryText(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{
		{Pattern: `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, Replacement: "***@***"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := s.Value("SELECT * FROM Users WHERE email = 'alice@example.com'")
	want := "SELECT * FROM Users WHERE email = '***@***'"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRulesApplyInOrder(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{
		{Pattern: "secret", Replacement: "hidden"},
		{Pattern: "hidden", Replacement: "***"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.Value("secret"); got != "***" {
		t.Errorf("got %q, want %q", got, "***")
	}
}

func TestNonStringValuesPassThrough(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{{Pattern: "4", Replacement: "*"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.Value(int64(42)); got != int64(42) {
		t.Errorf("int64 changed: %v", got)
	}
	if got := s.Value(nil); got != nil {
		t.Errorf("nil changed: %v", got)
	}
	if got := s.Value(true); got != true {
		t.Errorf("bool changed: %v", got)
	}
}

func TestRecursesIntoNestedValues(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{{Pattern: `\d{16}`, Replacement: "****"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nested := map[string]interface{}{
		"query_text": "WHERE card = '4111111111111111'",
		"items":      []interface{}{"1234567890123456", int64(7)},
	}
	got := s.Value(nested).(map[string]interface{})
	if got["query_text"] != "WHERE card = '****'" {
		t.Errorf("map value not sanitized: %v", got["query_text"])
	}
	items := got["items"].([]interface{})
	if items[0] != "****" {
		t.Errorf("slice value not sanitized: %v", items[0])
	}
	if items[1] != int64(7) {
		t.Errorf("numeric slice value changed: %v", items[1])
	}
}

func TestInvalidRegex(t *testing.T) {
	t.Parallel()
	if _, err := NewSanitizer([]Rule{{Pattern: "[invalid(regex", Replacement: "x"}}); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestHasRules(t *testing.T) {
	t.Parallel()
	empty, err := NewSanitizer(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.HasRules() {
		t.Error("empty sanitizer reports rules")
	}

	s, err := NewSanitizer([]Rule{{Pattern: "a", Replacement: "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.HasRules() {
		t.Error("sanitizer with rules reports none")
	}
}
