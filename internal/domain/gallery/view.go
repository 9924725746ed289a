package gallery

import (
	"context"
	"fmt"
	"iter"
	"strings"
)

// Thumbnail is the grid entry for one record.
type Thumbnail struct {
	Index       int
	ImageURL    string
	AspectRatio string
	Caption     string
}

// View is a full rendering of the gallery, re-derived from storage each time.
type View struct {
	Count     int
	ShowClear bool
	// Thumbnails yields one entry per record, newest first.
	Thumbnails iter.Seq[Thumbnail]
}

// Thumbnails lazily maps records to thumbnails.
func Thumbnails(records []ImageRecord) iter.Seq[Thumbnail] {
	return func(yield func(Thumbnail) bool) {
		for i, r := range records {
			if !yield(newThumbnail(i, r)) {
				return
			}
		}
	}
}

func newThumbnail(index int, r ImageRecord) Thumbnail {
	t := Thumbnail{Index: index, ImageURL: r.ImageURL, AspectRatio: r.AspectRatio}
	if r.AspectRatio != "" {
		t.Caption = "Aspect Ratio: " + r.AspectRatio
	}
	return t
}

// Render rebuilds the thumbnail view from the persisted collection.
func (s *Store) Render(ctx context.Context) (View, error) {
	records, err := s.List(ctx)
	if err != nil {
		return View{}, err
	}
	return View{
		Count:      len(records),
		ShowClear:  len(records) > 0,
		Thumbnails: Thumbnails(records),
	}, nil
}

// DetailView is the full-image overlay for one record.
type DetailView struct {
	Index         int
	ImageURL      string
	Prompt        string
	RefinedPrompt string
	Description   string
	AspectRatio   string

	ShowPrompt        bool
	ShowRefinedPrompt bool
	ShowDescription   bool
	ShowAspectRatio   bool

	DownloadURL  string
	DownloadName string
}

// NewDetailView builds the overlay. The refined prompt is shown only when it
// is non-blank and differs from the prompt.
func NewDetailView(index int, r ImageRecord, unixMillis int64) DetailView {
	refined := strings.TrimSpace(r.RefinedPrompt)
	return DetailView{
		Index:             index,
		ImageURL:          r.ImageURL,
		Prompt:            r.Prompt,
		RefinedPrompt:     r.RefinedPrompt,
		Description:       r.Description,
		AspectRatio:       r.AspectRatio,
		ShowPrompt:        r.Prompt != "",
		ShowRefinedPrompt: refined != "" && r.RefinedPrompt != r.Prompt,
		ShowDescription:   r.Description != "",
		ShowAspectRatio:   r.AspectRatio != "",
		DownloadURL:       DownloadURL(r.ImageURL),
		DownloadName:      fmt.Sprintf("image_%d.png", unixMillis),
	}
}

// Detail renders the overlay for the record at index.
func (s *Store) Detail(ctx context.Context, index int) (DetailView, error) {
	record, err := s.Get(ctx, index)
	if err != nil {
		return DetailView{}, err
	}
	return NewDetailView(index, record, s.now().UnixMilli()), nil
}
