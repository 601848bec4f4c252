package autocomplete

import (
	"strings"
	"testing"
)

func TestSuggestExactKeyword(t *testing.T) {
	resp := Suggest(Request{Code: "def", CursorPosition: 3, Language: "python"})
	if resp.Suggestion != "def function_name():\n    pass" {
		t.Errorf("suggestion = %q", resp.Suggestion)
	}
	if resp.StartPosition != 0 || resp.EndPosition != 3 {
		t.Errorf("range = [%d, %d], want [0, 3]", resp.StartPosition, resp.EndPosition)
	}
	if !strings.Contains(resp.Description, "def") {
		t.Errorf("description = %q", resp.Description)
	}
}

func TestSuggestPrefixMatch(t *testing.T) {
	resp := Suggest(Request{Code: "pri", CursorPosition: 3, Language: "python"})
	if resp.Suggestion != "print()" {
		t.Errorf("suggestion = %q, want print()", resp.Suggestion)
	}

	// One typed character is not enough for a prefix match.
	resp = Suggest(Request{Code: "p", CursorPosition: 1, Language: "python"})
	if resp.Suggestion != "" {
		t.Errorf("single-char prefix matched %q", resp.Suggestion)
	}
}

func TestSuggestMidBuffer(t *testing.T) {
	code := "x = 1\nwhi"
	resp := Suggest(Request{Code: code, CursorPosition: len(code), Language: "python"})
	if resp.Suggestion != "while condition:\n    pass" {
		t.Errorf("suggestion = %q", resp.Suggestion)
	}
	if resp.StartPosition != 6 {
		t.Errorf("start = %d, want 6", resp.StartPosition)
	}
}

func TestSuggestEmptyWord(t *testing.T) {
	resp := Suggest(Request{Code: "x = 1 ", CursorPosition: 6, Language: "python"})
	if resp.Suggestion != "" {
		t.Errorf("suggestion = %q, want empty", resp.Suggestion)
	}
	if resp.Description != "No suggestion available" {
		t.Errorf("description = %q", resp.Description)
	}
	if resp.StartPosition != 6 || resp.EndPosition != 6 {
		t.Errorf("range = [%d, %d]", resp.StartPosition, resp.EndPosition)
	}
}

func TestSuggestJavascriptKeywords(t *testing.T) {
	resp := Suggest(Request{Code: "cons", CursorPosition: 4, Language: "javascript"})
	if resp.Suggestion == "" {
		t.Fatal("expected a suggestion for cons in javascript")
	}
	if !strings.HasPrefix(resp.Suggestion, "const") && !strings.HasPrefix(resp.Suggestion, "console") {
		t.Errorf("suggestion = %q", resp.Suggestion)
	}

	// Typescript shares the javascript keyword set.
	resp = Suggest(Request{Code: "interface", CursorPosition: 9, Language: "typescript"})
	if !strings.Contains(resp.Suggestion, "interface Name") {
		t.Errorf("suggestion = %q", resp.Suggestion)
	}
}

func TestSuggestCommonPatterns(t *testing.T) {
	resp := Suggest(Request{Code: "todo", CursorPosition: 4, Language: "python"})
	if resp.Suggestion != "// TODO: " {
		t.Errorf("suggestion = %q", resp.Suggestion)
	}
}

func TestSuggestContextFallback(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"def my_function", "():\n    pass"},
		{"class MyThing", ":\n    def __init__(self):\n        pass"},
		{"if x > 1", ":\n    pass"},
		{"for item", " in range():\n    pass"},
	}
	for _, tt := range tests {
		resp := Suggest(Request{Code: tt.code, CursorPosition: len(tt.code), Language: "python"})
		if resp.Suggestion != tt.want {
			t.Errorf("code %q: suggestion = %q, want %q", tt.code, resp.Suggestion, tt.want)
		}
	}
}

func TestSuggestCursorOutOfRange(t *testing.T) {
	// Cursor past the end of the buffer is clamped, not a panic.
	resp := Suggest(Request{Code: "def", CursorPosition: 100, Language: "python"})
	if resp.EndPosition != 3 {
		t.Errorf("end = %d, want 3", resp.EndPosition)
	}

	resp = Suggest(Request{Code: "def", CursorPosition: -5, Language: "python"})
	if resp.StartPosition != 0 || resp.EndPosition != 0 {
		t.Errorf("range = [%d, %d]", resp.StartPosition, resp.EndPosition)
	}
}

func TestCurrentWord(t *testing.T) {
	tests := []struct {
		code      string
		cursor    int
		word      string
		wordStart int
	}{
		{"print", 5, "print", 0},
		{"x = pri", 7, "pri", 4},
		{"foo_bar2", 8, "foo_bar2", 0},
		{"a b", 1, "a", 0},
		{"a b", 2, "", 2},
		{"DEF", 3, "def", 0},
	}
	for _, tt := range tests {
		word, start := currentWord(tt.code, tt.cursor)
		if word != tt.word || start != tt.wordStart {
			t.Errorf("currentWord(%q, %d) = (%q, %d), want (%q, %d)",
				tt.code, tt.cursor, word, start, tt.word, tt.wordStart)
		}
	}
}
