// Package responses contains the JSON bodies of the HTTP API.
package responses

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
	"github.com/janhq/jan-imagegen/internal/utils/requestid"
)

type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError maps err onto a status code and an error body.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	var pe *platformerrors.PlatformError
	if !errors.As(err, &pe) {
		pe = platformerrors.AsError(c.Request.Context(), platformerrors.LayerHandler, err, "request failed")
	}
	platformerrors.LogError(log, pe)

	c.JSON(platformerrors.ErrorTypeToHTTPStatus(pe.Type), ErrorResponse{Error: &ErrorDetail{
		Message:   pe.Message,
		Type:      strings.ToLower(string(pe.Type)) + "_error",
		Code:      pe.UUID,
		RequestID: requestid.FromContext(c.Request.Context()),
	}})
}

// WriteValidationError writes a 400 with message.
func WriteValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: &ErrorDetail{
		Message:   message,
		Type:      "validation_error",
		RequestID: requestid.FromContext(c.Request.Context()),
	}})
}

// ImageResponse is one gallery entry with its position.
type ImageResponse struct {
	Index int `json:"index"`
	gallery.ImageRecord
}

type ListImagesResponse struct {
	Object string          `json:"object"`
	Data   []ImageResponse `json:"data"`
	Total  int             `json:"total"`
}

func NewListImagesResponse(records []gallery.ImageRecord) ListImagesResponse {
	data := make([]ImageResponse, len(records))
	for i, r := range records {
		data[i] = ImageResponse{Index: i, ImageRecord: r}
	}
	return ListImagesResponse{Object: "list", Data: data, Total: len(records)}
}

type DetailResponse struct {
	Index         int    `json:"index"`
	ImageURL      string `json:"imageUrl"`
	Prompt        string `json:"prompt,omitempty"`
	RefinedPrompt string `json:"refinedPrompt,omitempty"`
	Description   string `json:"description,omitempty"`
	AspectRatio   string `json:"aspectRatio,omitempty"`
	DownloadURL   string `json:"downloadUrl"`
	DownloadName  string `json:"downloadName"`
}

// NewDetailResponse keeps only the fields the overlay would show.
func NewDetailResponse(v gallery.DetailView) DetailResponse {
	d := DetailResponse{
		Index:        v.Index,
		ImageURL:     v.ImageURL,
		DownloadURL:  v.DownloadURL,
		DownloadName: v.DownloadName,
	}
	if v.ShowPrompt {
		d.Prompt = v.Prompt
	}
	if v.ShowRefinedPrompt {
		d.RefinedPrompt = v.RefinedPrompt
	}
	if v.ShowDescription {
		d.Description = v.Description
	}
	if v.ShowAspectRatio {
		d.AspectRatio = v.AspectRatio
	}
	return d
}

type GenerationAccepted struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type GenerationsResponse struct {
	Busy   bool               `json:"busy"`
	Jobs   []generation.Job   `json:"jobs"`
	Alerts []generation.Alert `json:"alerts"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}
