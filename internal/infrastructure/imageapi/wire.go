package imageapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/janhq/jan-imagegen/internal/domain/generation"
)

type generateRequest struct {
	Prompt           string `json:"prompt"`
	AspectRatio      string `json:"aspectRatio"`
	UsePromptRefiner bool   `json:"usePromptRefiner"`
}

// generateResponse covers both async ({task_id} or {taskId}) and sync
// ({image_url, description} or {image}) backends.
type generateResponse struct {
	TaskID      string `json:"task_id"`
	TaskIDAlias string `json:"taskId"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type taskStatusResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

type taskResult struct {
	ImageURL      string `json:"image_url"`
	Description   string `json:"description"`
	RefinedPrompt string `json:"refined_prompt"`
}

type deleteImagesRequest struct {
	ImageIDs []string `json:"image_ids"`
}

// QueueStats is the backend's job queue snapshot.
type QueueStats struct {
	QueuedJobs  int    `json:"queued_jobs"`
	RunningJobs int    `json:"running_jobs"`
	Error       string `json:"error,omitempty"`
}

func decodeSubmission(body []byte, base *url.URL) (*generation.Submission, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrMalformedResponse, err)
	}

	taskID := resp.TaskID
	if taskID == "" {
		taskID = resp.TaskIDAlias
	}
	switch {
	case taskID != "":
		return &generation.Submission{TaskID: taskID}, nil
	case resp.ImageURL != "":
		return &generation.Submission{Result: &generation.Result{
			ImageURL:    resolveURL(base, resp.ImageURL),
			Description: resp.Description,
		}}, nil
	case resp.Image != "":
		dataURL, err := toDataURL(resp.Image)
		if err != nil {
			return nil, err
		}
		return &generation.Submission{Result: &generation.Result{ImageURL: dataURL, Description: resp.Description}}, nil
	}
	return nil, fmt.Errorf("%w: response carries neither a task id nor an image", generation.ErrMalformedResponse)
}

func decodeStatus(body []byte, base *url.URL) (*generation.StatusReport, error) {
	var resp taskStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrMalformedResponse, err)
	}
	if resp.Status == "" {
		return nil, fmt.Errorf("%w: status is missing", generation.ErrMalformedResponse)
	}

	report := &generation.StatusReport{Status: generation.TaskStatus(strings.ToUpper(resp.Status))}
	if report.Status == generation.TaskSuccess {
		var res taskResult
		if err := json.Unmarshal(resp.Result, &res); err != nil {
			return nil, fmt.Errorf("%w: result: %v", generation.ErrMalformedResponse, err)
		}
		report.Result = &generation.Result{
			ImageURL:      resolveURL(base, res.ImageURL),
			Description:   res.Description,
			RefinedPrompt: res.RefinedPrompt,
		}
		return report, nil
	}

	// Failure reasons arrive as a plain string.
	var reason string
	if len(resp.Result) > 0 && json.Unmarshal(resp.Result, &reason) == nil {
		report.Message = reason
	}
	return report, nil
}

// resolveURL joins a relative image path onto the backend base URL.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" || base == nil || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}

func toDataURL(b64 string) (string, error) {
	if strings.HasPrefix(b64, "data:") {
		return b64, nil
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("%w: image is not base64: %v", generation.ErrMalformedResponse, err)
	}
	return "data:" + mimetype.Detect(raw).String() + ";base64," + b64, nil
}

// decodeDataURL returns the bytes of a base64 data URL.
func decodeDataURL(raw string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}
