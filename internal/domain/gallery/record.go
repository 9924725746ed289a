package gallery

import "slices"

// ImagesKey is the storage key holding the JSON-encoded gallery.
const ImagesKey = "images"

// ImageRecord is one persisted gallery entry.
type ImageRecord struct {
	ImageURL      string `json:"imageUrl"`
	Prompt        string `json:"prompt"`
	Description   string `json:"description,omitempty"`
	RefinedPrompt string `json:"refinedPrompt,omitempty"`
	AspectRatio   string `json:"aspectRatio,omitempty"`
}

// AspectRatios lists the ratios the backend renders; anything else falls back to 1:1 server side.
var AspectRatios = []string{"1:1", "2:3", "3:2", "4:3", "3:4", "16:9", "21:9", "32:9"}

// DefaultAspectRatio is used when the user picks none.
const DefaultAspectRatio = "1:1"

// IsSupportedAspectRatio reports whether ratio is one of AspectRatios.
func IsSupportedAspectRatio(ratio string) bool {
	return slices.Contains(AspectRatios, ratio)
}
