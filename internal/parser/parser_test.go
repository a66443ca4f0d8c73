package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractLinks(t *testing.T) {
	text := `
	Check this out: https://thriveonai.com/15-ai-startups-in-japan-to-take-note-of, and www.google.com!
	Also try https://test.org/about?page=1, hey this one as well bro https://weatherstack.com/documentation/.
	`
	want := []string{
		"https://thriveonai.com/15-ai-startups-in-japan-to-take-note-of",
		"www.google.com",
		"https://test.org/about?page=1",
		"https://weatherstack.com/documentation",
	}
	got := ExtractLinks(text)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractLinks mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinksPreservesOrderAndDuplicates(t *testing.T) {
	text := "see https://a.com then https://b.com then https://a.com again"
	want := []string{"https://a.com", "https://b.com", "https://a.com"}
	got := ExtractLinks(text)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractLinks mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinksNoLinks(t *testing.T) {
	if got := ExtractLinks("nothing to see here, just prose."); len(got) != 0 {
		t.Errorf("Expected no links, got %v", got)
	}
}

func TestCleanLinks(t *testing.T) {
	links := []string{
		"https://example.com.",
		"www.test.com,",
		"https://clean.org!",
		"https://good.com",
	}
	want := []string{
		"https://example.com",
		"www.test.com",
		"https://clean.org",
		"https://good.com",
	}
	got := CleanLinks(links)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CleanLinks mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanLinksIdempotent(t *testing.T) {
	links := []string{"https://example.com/a/b.", "www.x.org/path/,!"}
	once := CleanLinks(links)
	twice := CleanLinks(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("CleanLinks is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestExtractForm(t *testing.T) {
	text := `
	Fill this: [username](john) and [password](secret123)
	Not a form: [random]text
	`
	got := ExtractForm(text)
	if len(got) != 2 {
		t.Fatalf("Expected 2 form fields, got %d: %v", len(got), got)
	}

	if got[0].Raw != "[username](john)" || got[0].Name != "username" || got[0].Value != "john" {
		t.Errorf("Unexpected first field: %+v", got[0])
	}
	if got[1].Raw != "[password](secret123)" || got[1].Name != "password" || got[1].Value != "secret123" {
		t.Errorf("Unexpected second field: %+v", got[1])
	}
}

func TestExtractFormRejectsIncomplete(t *testing.T) {
	cases := []string{
		"[random]text",
		"[](value)",
		"[name]()",
		"[name] (value)",
		"[unclosed(value)",
	}
	for _, text := range cases {
		if got := ExtractForm(text); len(got) != 0 {
			t.Errorf("ExtractForm(%q) = %v, want none", text, got)
		}
	}
}

func TestExtractNotes(t *testing.T) {
	text := `
	Here's some info
	Note: This is important. We are doing test it's very cool.
	some prose in between
	Note: second note.
	note: lowercase marker is not a note
	`
	want := []string{
		"Note: This is important. We are doing test it's very cool.",
		"Note: second note.",
	}
	got := ExtractNotes(text)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractNotes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	text := `
	Here's some info
	Note: This is important. We are doing test it's very cool.
	action:
	i wanna navigate to https://test.com
	`
	got := Parse(text)

	if len(got.Notes) != 1 || got.Notes[0] != "Note: This is important. We are doing test it's very cool." {
		t.Errorf("Unexpected notes: %v", got.Notes)
	}
	if !got.HasAction {
		t.Error("Expected HasAction to be true")
	}
	if got.Action != "i wanna navigate to https://test.com" {
		t.Errorf("Unexpected action: %q", got.Action)
	}
	if len(got.Links) != 1 || got.Links[0] != "https://test.com" {
		t.Errorf("Unexpected links: %v", got.Links)
	}
}

func TestParseEmptyInput(t *testing.T) {
	got := Parse("")
	if got.HasAction || len(got.Notes) != 0 || len(got.Links) != 0 || len(got.Fields) != 0 {
		t.Errorf("Parse(\"\") should be empty, got %+v", got)
	}
}

func TestParseToleratesInterleavedConstructs(t *testing.T) {
	text := "Note: first\nfill [user](bob) then open www.site.org, ok\nNote: second"
	got := Parse(text)

	if len(got.Notes) != 2 {
		t.Errorf("Expected 2 notes, got %v", got.Notes)
	}
	if len(got.Fields) != 1 || got.Fields[0].Name != "user" {
		t.Errorf("Unexpected fields: %v", got.Fields)
	}
	if len(got.Links) != 1 || got.Links[0] != "www.site.org" {
		t.Errorf("Unexpected links: %v", got.Links)
	}
	if got.HasAction {
		t.Error("HasAction should be false without a marker line")
	}
}
