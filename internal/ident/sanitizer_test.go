package ident

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already valid", "CustomerId", "CustomerId"},
		{"underscore prefix", "_id", "_id"},
		{"space", "first name", "first_name"},
		{"dash and dot", "order-line.total", "order_line_total"},
		{"at prefix", "@FirstName", "_FirstName"},
		{"leading digit", "1stPlace", "_1stPlace"},
		{"only digits", "42", "_42"},
		{"empty", "", "_"},
		{"brackets", "[dbo].[Orders]", "_dbo___Orders_"},
		{"unicode letters kept", "Straße", "Straße"},
		{"go keyword", "type", "type_"},
		{"go keyword case differs", "Type", "Type"},
		{"symbols only", "$%", "__"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeIsDeterministic(t *testing.T) {
	for _, in := range []string{"a b", "select", "9x", ""} {
		first := Sanitize(in)
		for i := 0; i < 3; i++ {
			if got := Sanitize(in); got != first {
				t.Errorf("Sanitize(%q) changed between calls: %q vs %q", in, first, got)
			}
		}
	}
}

func TestCSharpTarget(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"class", "@class"},
		{"string", "@string"},
		{"Class", "Class"},
		{"type", "type"},
	}
	for _, tt := range tests {
		if got := CSharp.Sanitize(tt.input); got != tt.want {
			t.Errorf("CSharp.Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestScopeUnique(t *testing.T) {
	s := NewScope(Go)
	got := []string{s.Unique("Id"), s.Unique("id"), s.Unique("ID")}
	want := []string{"Id", "id_1", "ID_2"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Unique #%d = %q, want %q", i, got[i], want[i])
		}
	}

	seen := map[string]bool{}
	for _, id := range got {
		if seen[strings.ToLower(id)] {
			t.Errorf("identifier %q repeated (case-insensitive)", id)
		}
		seen[strings.ToLower(id)] = true
	}
}

func TestScopeSkipsTakenSuffix(t *testing.T) {
	s := NewScope(Go)
	if got := s.Unique("id_1"); got != "id_1" {
		t.Fatalf("Unique(id_1) = %q", got)
	}
	if got := s.Unique("id"); got != "id" {
		t.Fatalf("Unique(id) = %q", got)
	}
	if got := s.Unique("Id"); got != "Id_2" {
		t.Errorf("Unique(Id) = %q, want Id_2", got)
	}
}

func TestScopeKeywordEscapeDoesNotCollide(t *testing.T) {
	s := NewScope(Go)
	if got := s.Unique("type"); got != "type_" {
		t.Fatalf("Unique(type) = %q, want type_", got)
	}
	if got := s.Unique("type_"); got != "type__1" {
		t.Errorf("Unique(type_) = %q, want type__1", got)
	}
	if got := s.Unique("a b"); got != "a_b" {
		t.Errorf("Unique(a b) = %q, want a_b", got)
	}
	if got := s.Unique("a-b"); got != "a_b_1" {
		t.Errorf("Unique(a-b) = %q, want a_b_1", got)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "go", "Go", "golang"} {
		tgt, err := Lookup(name)
		if err != nil || tgt.Name != "go" {
			t.Errorf("Lookup(%q) = %v, %v", name, tgt.Name, err)
		}
	}
	if tgt, err := Lookup("csharp"); err != nil || tgt.Name != "csharp" {
		t.Errorf("Lookup(csharp) = %v, %v", tgt.Name, err)
	}
	if _, err := Lookup("cobol"); err == nil {
		t.Error("expected error for unknown target")
	}
}
