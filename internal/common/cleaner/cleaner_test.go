package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text kept", "Build a chatbot", "Build a chatbot"},
		{"tags stripped", "<p>Build a <b>chatbot</b></p>", "Build a chatbot"},
		{"entities decoded", "R&amp;D &lt;team&gt;", "R&D <team>"},
		{"breaks become lines", "line one<br>line two<br/>line three", "line one\nline two\nline three"},
		{"blank lines collapsed", "a\n\n\n\n\nb", "a\n\nb"},
		{"inner spaces collapsed", "  too    many   spaces  ", "too many spaces"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Text(tt.in))
		})
	}
}

func TestInline(t *testing.T) {
	assert.Equal(t, "a b c", New().Inline("<p>a</p>\n\nb<br>c"))
}
