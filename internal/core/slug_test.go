package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"How to train your dragon", "how-to-train-your-dragon"},
		{"  --Leading and trailing--  ", "leading-and-trailing"},
		{"Go 1.24 released", "go-1-24-released"},
		{"multiple   spaces\tand\nnewlines", "multiple-spaces-and-newlines"},
		{"Crème brûlée", "cr-me-br-l-e"},
		{"!!!", ""},
		{"", ""},
		{"already-a-slug", "already-a-slug"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, CreateSlug(tt.title))
		})
	}
}

func TestCreateSlug_Idempotent(t *testing.T) {
	titles := []string{
		"Hello, World!",
		"A/B testing: (the) [good] {parts}",
		"ÜBER cool 100%",
		"trailing dash-",
		"--",
	}

	for _, title := range titles {
		once := CreateSlug(title)
		assert.Equal(t, once, CreateSlug(once), "title %q", title)
		assert.NotContains(t, once, "--")
		assert.False(t, len(once) > 0 && (once[0] == '-' || once[len(once)-1] == '-'))
	}
}
