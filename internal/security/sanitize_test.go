package security

import "testing"

func TestSanitize_PlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"escapes markup", `<script>alert("x")</script>`, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;"},
		{"escapes single quotes", "O'Brien", "O&#39;Brien"},
		{"escapes ampersand", "a & b", "a &amp; b"},
		{"plain string unchanged", "Ada Lovelace", "Ada Lovelace"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input, PlainText); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Email(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid address untouched", "ada@campus.example.edu", "ada@campus.example.edu"},
		{"strips angle brackets", "<ada@example.com>", "ada@example.com"},
		{"strips spaces", "ada @ example.com", "ada@example.com"},
		{"strips markup", `ada"><script>@x.com`, "adascript@x.com"},
		{"garbage degrades to empty", "  \t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input, Email); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_URL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid url untouched", "https://example.com/a?b=1#c", "https://example.com/a?b=1#c"},
		{"strips spaces and quotes", `https://example.com/"x y"`, "https://example.com/xy"},
		{"strips control bytes", "https://example.com/\x00\x01", "https://example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input, URL); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Integer(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"-42", "-42"},
		{"+7", "+7"},
		{"4 2px", "42"},
		{"3.14", "314"},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.input, Integer); got != tt.want {
			t.Errorf("Sanitize(%q, Integer) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitize_Float(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3.14", "3.14"},
		{"-0.5", "-0.5"},
		{"1.2.3", "1.23"},
		{"$19.99", "19.99"},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.input, Float); got != tt.want {
			t.Errorf("Sanitize(%q, Float) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
