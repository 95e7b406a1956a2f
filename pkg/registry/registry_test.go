package registry

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New(nil)
	r.Register("summarize", "v1", "Summarize: {{text}}", map[string]string{"author": "alice"})

	v, err := r.Get("summarize", "v1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v.Template != "Summarize: {{text}}" {
		t.Errorf("Unexpected template %q", v.Template)
	}
	if v.Metadata["author"] != "alice" {
		t.Errorf("Unexpected metadata %+v", v.Metadata)
	}
	if v.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := New(nil)
	r.Register("summarize", "v1", "hello", nil)

	var notFound *NotFoundError

	_, err := r.Get("unknown", "v1")
	if !errors.As(err, &notFound) || notFound.Prompt != "unknown" || notFound.Version != "" {
		t.Errorf("Expected prompt-level NotFoundError, got %v", err)
	}

	_, err = r.Get("summarize", "v9")
	if !errors.As(err, &notFound) || notFound.Version != "v9" {
		t.Errorf("Expected version-level NotFoundError, got %v", err)
	}
}

func TestRegistry_Latest(t *testing.T) {
	r := New(nil)
	r.Register("summarize", "v1", "one", nil)
	time.Sleep(time.Millisecond)
	r.Register("summarize", "v2", "two", nil)

	v, err := r.Latest("summarize")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if v.Version != "v2" {
		t.Errorf("Latest = %q, want v2", v.Version)
	}

	// Re-registering an older version makes it the most recently updated.
	time.Sleep(time.Millisecond)
	r.Register("summarize", "v1", "one-edited", nil)

	v, err = r.Latest("summarize")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if v.Version != "v1" {
		t.Errorf("Latest = %q, want v1 after update", v.Version)
	}

	if _, err := r.Latest("unknown"); err == nil {
		t.Error("Expected error for unknown prompt")
	}
}

func TestRegistry_ReregisterKeepsCreatedAt(t *testing.T) {
	r := New(nil)
	first := r.Register("summarize", "v1", "one", nil)
	time.Sleep(time.Millisecond)
	second := r.Register("summarize", "v1", "one-edited", nil)

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on re-register: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.Template != "one-edited" {
		t.Errorf("Template = %q, want overwritten content", second.Template)
	}
}

func TestRegistry_Listing(t *testing.T) {
	r := New(nil)
	r.Register("summarize", "v2", "two", nil)
	r.Register("summarize", "v1", "one", nil)
	r.Register("classify", "v1", "cls", nil)

	if got := r.Prompts(); !reflect.DeepEqual(got, []string{"classify", "summarize"}) {
		t.Errorf("Prompts = %v", got)
	}
	if got := r.Versions("summarize"); !reflect.DeepEqual(got, []string{"v1", "v2"}) {
		t.Errorf("Versions = %v", got)
	}
	if got := r.Versions("unknown"); len(got) != 0 {
		t.Errorf("Expected no versions for unknown prompt, got %v", got)
	}
}

func TestRender(t *testing.T) {
	r := New(nil)
	r.Register("summarize", "v1", "Summarize {{ text }} in {{lang}} for {{text}}", nil)

	out, err := r.Render("summarize", "v1", map[string]string{
		"text": "the report",
		"lang": "English",
		"tone": "unused",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "Summarize the report in English for the report"
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestRender_MissingVariable(t *testing.T) {
	r := New(nil)
	r.Register("summarize", "v1", "Summarize {{text}} in {{lang}}", nil)

	_, err := r.Render("summarize", "v1", map[string]string{"text": "x"})
	var missing *MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingVariableError, got %v", err)
	}
	if !reflect.DeepEqual(missing.Variables, []string{"lang"}) {
		t.Errorf("Missing variables = %v, want [lang]", missing.Variables)
	}

	_, err = r.Render("summarize", "v1", nil)
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingVariableError, got %v", err)
	}
	if !reflect.DeepEqual(missing.Variables, []string{"text", "lang"}) {
		t.Errorf("Missing variables = %v, want [text lang]", missing.Variables)
	}
}

func TestRender_NoPlaceholders(t *testing.T) {
	r := New(nil)
	r.Register("static", "v1", "You are a helpful assistant.", nil)

	out, err := r.Render("static", "v1", nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "You are a helpful assistant." {
		t.Errorf("Render = %q", out)
	}
}

func TestVersion_Variables(t *testing.T) {
	r := New(nil)
	v := r.Register("p", "v1", "{{a}} {{b}} {{ a }} {{c}}", nil)

	if got := v.Variables(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Variables = %v", got)
	}
}
