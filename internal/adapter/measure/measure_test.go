package measure

import (
	"errors"
	"testing"
)

func TestCodepointCounter(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"hello", 5},
		{"héllo", 5},
		{"日本語", 3},
		{"a b\n", 4},
	}

	for _, tt := range tests {
		got, err := CodepointCounter{}.Measure(tt.input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Measure(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestByteCounter(t *testing.T) {
	got, _ := ByteCounter{}.Measure("日本")
	if got != 6 {
		t.Errorf("expected 6 bytes, got %d", got)
	}
}

func TestGraphemeCounter(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"abc", 3},
		{"e\u0301", 1}, // e + combining acute accent
		{"👍🏽", 1},      // emoji with skin tone modifier
		{"🇺🇸🇫🇷", 2},    // two flags
		{"a\r\nb", 3},  // CRLF is one cluster
	}

	for _, tt := range tests {
		got, err := GraphemeCounter{}.Measure(tt.input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Measure(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestWordCounter(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"hello world", 2},
		{"Hello, world!", 2},
		{"   ", 0},
		{"it's 2024", 2},
	}

	for _, tt := range tests {
		got, _ := WordCounter{}.Measure(tt.input)
		if got != tt.want {
			t.Errorf("Measure(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestApproxTokenCounter(t *testing.T) {
	count, _ := ApproxTokenCounter{}.Measure("hello world this is a test")
	if count < 6 {
		t.Errorf("expected count >= 6 words, got %d", count)
	}

	count, _ = ApproxTokenCounter{}.Measure("")
	if count != 0 {
		t.Errorf("expected 0 count for empty input, got %d", count)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hello-world", 2},
		{"func(x, y)", 3},
		{"123numbers456", 1},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}

func TestFunc(t *testing.T) {
	boom := errors.New("boom")
	m := Func(func(text string) (int, error) {
		if text == "bad" {
			return 0, boom
		}
		return len(text) * 2, nil
	})

	if n, err := m.Measure("ab"); err != nil || n != 4 {
		t.Errorf("Measure(ab) = %d, %v", n, err)
	}
	if _, err := m.Measure("bad"); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", Chars, Bytes, Graphemes, Words, ApproxTokens} {
		m, err := New(name, "")
		if err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
			continue
		}
		if n, _ := m.Measure("ab"); n == 0 && name != ApproxTokens {
			t.Errorf("New(%q).Measure(ab) returned 0", name)
		}
	}

	if _, err := New("syllables", ""); !errors.Is(err, ErrUnknownMeasurer) {
		t.Errorf("expected ErrUnknownMeasurer, got %v", err)
	}
}

func TestTikTokenCounter(t *testing.T) {
	counter, err := NewTikTokenCounter("cl100k_base")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	n, err := counter.Measure("hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 tokens, got %d", n)
	}

	// special token text must not panic
	if _, err := counter.Measure("before <|endoftext|> after"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewTikTokenCounter_UnknownEncoding(t *testing.T) {
	if _, err := NewTikTokenCounter("no_such_encoding"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
