package gallery

import (
	"errors"
)

var (
	ErrIndexOutOfRange = errors.New("image index out of range")
	ErrCorruptGallery  = errors.New("stored gallery is not valid JSON")
	ErrInvalidRecord   = errors.New("image record has no imageUrl")
	ErrNoAssetIDs      = errors.New("image url has no file name")
)

// Alert texts shown when a backend deletion does not succeed.
const (
	MsgDeleteRejected = "Error deleting image. Please try again."
	MsgDeleteFailed   = "An error occurred while deleting the image."
	MsgClearRejected  = "Error clearing images. Please try again."
	MsgClearFailed    = "An error occurred while clearing the images."
	MsgNoAssetIDs     = "This image cannot be deleted because its URL has no file name."
)

// httpStatuser is implemented by backend errors carrying an HTTP status.
type httpStatuser interface {
	HTTPStatus() int
}

// rejectedByBackend reports whether err is a non-OK HTTP answer rather than a
// transport failure.
func rejectedByBackend(err error) bool {
	var s httpStatuser
	return errors.As(err, &s)
}
