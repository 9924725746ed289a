package gallery

import "strings"

// OriginalPrefix marks the raw asset variant of a generated image.
const OriginalPrefix = "original_"

// AssetIDs derives the backend asset ids for an image URL: the filename and,
// when it carries the original_ prefix, the filename without it.
func AssetIDs(imageURL string) []string {
	name := fileName(imageURL)
	if name == "" {
		return nil
	}
	ids := []string{name}
	if stripped := strings.Replace(name, OriginalPrefix, "", 1); stripped != name && stripped != "" {
		ids = append(ids, stripped)
	}
	return ids
}

// CollectAssetIDs flattens AssetIDs over records, preserving order.
func CollectAssetIDs(records []ImageRecord) []string {
	ids := make([]string, 0, len(records)*2)
	for _, r := range records {
		ids = append(ids, AssetIDs(r.ImageURL)...)
	}
	return ids
}

// DownloadURL removes the first original_ marker, ignoring case.
func DownloadURL(imageURL string) string {
	idx := strings.Index(strings.ToLower(imageURL), OriginalPrefix)
	if idx < 0 {
		return imageURL
	}
	return imageURL[:idx] + imageURL[idx+len(OriginalPrefix):]
}

func fileName(imageURL string) string {
	if i := strings.IndexAny(imageURL, "?#"); i >= 0 {
		imageURL = imageURL[:i]
	}
	if i := strings.LastIndex(imageURL, "/"); i >= 0 {
		return imageURL[i+1:]
	}
	return imageURL
}
