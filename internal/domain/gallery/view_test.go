package gallery_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
)

func TestNewDetailView_RefinedPromptVisibility(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		refined string
		want    bool
	}{
		{"differs", "cat", "a fluffy cat", true},
		{"same as prompt", "cat", "cat", false},
		{"empty", "cat", "", false},
		{"blank", "cat", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := gallery.NewDetailView(0, gallery.ImageRecord{ImageURL: "x.png", Prompt: tt.prompt, RefinedPrompt: tt.refined}, 1)
			assert.Equal(t, tt.want, v.ShowRefinedPrompt)
		})
	}
}

func TestNewDetailView_SectionsToggle(t *testing.T) {
	v := gallery.NewDetailView(2, gallery.ImageRecord{ImageURL: "original_foo.png", Prompt: "p"}, 42)
	assert.Equal(t, 2, v.Index)
	assert.True(t, v.ShowPrompt)
	assert.False(t, v.ShowDescription)
	assert.False(t, v.ShowAspectRatio)
	assert.Equal(t, "foo.png", v.DownloadURL)
	assert.Equal(t, "image_42.png", v.DownloadName)
}

func TestThumbnails_StopsEarly(t *testing.T) {
	records := []gallery.ImageRecord{{ImageURL: "a"}, {ImageURL: "b"}, {ImageURL: "c"}}
	var seen []string
	for th := range gallery.Thumbnails(records) {
		seen = append(seen, th.ImageURL)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Len(t, slices.Collect(gallery.Thumbnails(records)), 3)
}
