package event

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "plain", want: "plain"},
		{in: "new_york", want: `new\_york`},
		{in: "1. a-b (c)!", want: `1\. a\-b \(c\)\!`},
		{in: "سلام *", want: `سلام \*`},
	}
	for _, tt := range tests {
		if got := EscapeMarkdownV2(tt.in); got != tt.want {
			t.Fatalf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRichTextRendersBoth(t *testing.T) {
	var rt RichText
	rt.Bold("📊 Stats.")
	rt.Printf("\n%d. %s\n", 1, "a_b")
	rt.Printf("next: ")
	rt.Code("/list 2")

	r := rt.Reply()
	if want := "📊 Stats.\n1. a_b\nnext: /list 2"; r.Text != want {
		t.Fatalf("Text = %q, want %q", r.Text, want)
	}
	if want := "*📊 Stats\\.*\n1\\. a\\_b\nnext: `/list 2`"; r.Markdown != want {
		t.Fatalf("Markdown = %q, want %q", r.Markdown, want)
	}
	if !r.DisablePreview {
		t.Fatalf("DisablePreview = false, want true")
	}
}
