package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"trailing punctuation", "Hello World!!", "hello-world"},
		{"mixed case", "My First Article", "my-first-article"},
		{"punctuation run", "foo -- bar", "foo-bar"},
		{"leading punctuation", "!important note", "important-note"},
		{"digits", "Top 10 Tips", "top-10-tips"},
		{"already a slug", "already-a-slug", "already-a-slug"},
		{"empty", "", ""},
		{"only punctuation", "!?!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}
