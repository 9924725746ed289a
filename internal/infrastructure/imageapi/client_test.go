package imageapi_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/infrastructure/imageapi"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
	"github.com/janhq/jan-imagegen/internal/utils/requestid"
	"github.com/janhq/jan-imagegen/pkg/config"
	"github.com/janhq/jan-imagegen/pkg/testhelpers"
)

// 1x1 transparent PNG.
var pngPixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func newClient(t *testing.T, backend *testhelpers.FakeBackend) *imageapi.Client {
	t.Helper()
	c, err := imageapi.NewClient(config.APIConfig{
		BaseURL:        backend.URL(),
		APIKey:         "secret-key",
		RequestTimeout: 5 * time.Second,
		RateLimit:      1000,
		RateBurst:      10,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := imageapi.NewClient(config.APIConfig{BaseURL: "not a url", RateLimit: 1, RateBurst: 1}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSubmit_SendsRequest(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	c := newClient(t, backend)

	ctx := requestid.WithContext(context.Background(), "gen_01hv3k8a0000000000000000aa")
	sub, err := c.Submit(ctx, generation.Request{Prompt: "a cat", AspectRatio: "16:9", UsePromptRefiner: true})
	require.NoError(t, err)
	assert.Equal(t, "task-1", sub.TaskID)
	assert.Nil(t, sub.Result)

	reqs := backend.RequestsTo(http.MethodPost, "/generate-image")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer secret-key", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "gen_01hv3k8a0000000000000000aa", reqs[0].Header.Get(requestid.Header))
	assert.Contains(t, reqs[0].Header.Get("Content-Type"), "application/json")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	assert.Equal(t, map[string]any{"prompt": "a cat", "aspectRatio": "16:9", "usePromptRefiner": true}, body)
}

func TestSubmit_ResponseShapes(t *testing.T) {
	tests := []struct {
		name       string
		reply      testhelpers.Reply
		wantTask   string
		wantURL    string
		wantDesc   string
		wantErr    bool
		wantStatus int
	}{
		{name: "task_id", reply: testhelpers.Reply{Code: 200, Body: gin.H{"task_id": "abc"}}, wantTask: "abc"},
		{name: "taskId alias", reply: testhelpers.Reply{Code: 200, Body: gin.H{"taskId": "xyz"}}, wantTask: "xyz"},
		{
			name:     "sync relative url",
			reply:    testhelpers.Reply{Code: 200, Body: gin.H{"image_url": "/images/original_s.png", "description": "sync"}},
			wantURL:  "/images/original_s.png",
			wantDesc: "sync",
		},
		{
			name:    "sync absolute url",
			reply:   testhelpers.Reply{Code: 200, Body: gin.H{"image_url": "https://cdn.example.com/a.png"}},
			wantURL: "https://cdn.example.com/a.png",
		},
		{
			name:    "base64 image",
			reply:   testhelpers.Reply{Code: 200, Body: gin.H{"image": base64.StdEncoding.EncodeToString(pngPixel)}},
			wantURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPixel),
		},
		{name: "empty object", reply: testhelpers.Reply{Code: 200, Body: gin.H{}}, wantErr: true},
		{name: "not json", reply: testhelpers.Reply{Code: 200, Body: "<html>"}, wantErr: true},
		{name: "unauthorized", reply: testhelpers.Reply{Code: 401, Body: gin.H{"detail": "bad token"}}, wantErr: true, wantStatus: 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testhelpers.NewFakeBackend(t)
			backend.OnGenerate(tt.reply)
			c := newClient(t, backend)

			sub, err := c.Submit(context.Background(), generation.Request{Prompt: "p", AspectRatio: "1:1"})
			if tt.wantErr {
				require.Error(t, err)
				var se *generation.StatusError
				if tt.wantStatus != 0 {
					require.ErrorAs(t, err, &se)
					assert.Equal(t, tt.wantStatus, se.StatusCode)
				} else {
					assert.ErrorIs(t, err, generation.ErrMalformedResponse)
					assert.False(t, errors.As(err, &se))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTask, sub.TaskID)
			if tt.wantURL == "" {
				assert.Nil(t, sub.Result)
				return
			}
			require.NotNil(t, sub.Result)
			want := tt.wantURL
			if want[0] == '/' {
				want = backend.URL() + want
			}
			assert.Equal(t, want, sub.Result.ImageURL)
			assert.Equal(t, tt.wantDesc, sub.Result.Description)
		})
	}
}

func TestSubmit_TransportError(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	c := newClient(t, backend)
	backend.Server.Close()

	_, err := c.Submit(context.Background(), generation.Request{Prompt: "p"})
	require.Error(t, err)
	var se *generation.StatusError
	assert.False(t, errors.As(err, &se))
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
}

func TestTaskStatus(t *testing.T) {
	tests := []struct {
		name        string
		reply       testhelpers.Reply
		wantStatus  generation.TaskStatus
		wantURL     string
		wantRefined string
		wantMessage string
		wantCode    int
		wantBadBody bool
	}{
		{name: "pending", reply: testhelpers.Pending(), wantStatus: generation.TaskPending},
		{
			name:        "success",
			reply:       testhelpers.Success("/images/original_x.png", "d", "refined"),
			wantStatus:  generation.TaskSuccess,
			wantURL:     "/images/original_x.png",
			wantRefined: "refined",
		},
		{name: "failure with reason", reply: testhelpers.Failure("CUDA OOM"), wantStatus: generation.TaskFailure, wantMessage: "CUDA OOM"},
		{name: "unknown state", reply: testhelpers.Reply{Code: 200, Body: gin.H{"status": "STARTED"}}, wantStatus: "STARTED"},
		{name: "server error", reply: testhelpers.ServerError(), wantCode: 500},
		{name: "not found", reply: testhelpers.Reply{Code: 404, Body: gin.H{}}, wantCode: 404},
		{name: "missing status", reply: testhelpers.Reply{Code: 200, Body: gin.H{"result": "x"}}, wantBadBody: true},
		{name: "success without object", reply: testhelpers.Reply{Code: 200, Body: gin.H{"status": "SUCCESS", "result": "oops"}}, wantBadBody: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testhelpers.NewFakeBackend(t)
			backend.OnStatus(tt.reply)
			c := newClient(t, backend)

			report, err := c.TaskStatus(context.Background(), "task-9")

			reqs := backend.RequestsTo(http.MethodGet, "/task-status/")
			require.Len(t, reqs, 1)
			assert.Equal(t, "/task-status/task-9", reqs[0].Path)

			switch {
			case tt.wantCode != 0:
				var se *generation.StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.wantCode, se.StatusCode)
			case tt.wantBadBody:
				assert.ErrorIs(t, err, generation.ErrMalformedResponse)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, report.Status)
				assert.Equal(t, tt.wantMessage, report.Message)
				if tt.wantURL != "" {
					require.NotNil(t, report.Result)
					assert.Equal(t, backend.URL()+tt.wantURL, report.Result.ImageURL)
					assert.Equal(t, tt.wantRefined, report.Result.RefinedPrompt)
				}
			}
		})
	}
}

func TestDeleteImages(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	c := newClient(t, backend)

	require.NoError(t, c.DeleteImages(context.Background(), []string{"original_a.png", "a.png"}))

	reqs := backend.RequestsTo(http.MethodDelete, "/delete-images/")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"image_ids":["original_a.png","a.png"]}`, reqs[0].Body)

	backend.OnDelete(testhelpers.Reply{Code: 400, Body: gin.H{"detail": "No image IDs provided"}})
	err := c.DeleteImages(context.Background(), []string{"x"})
	var se *generation.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.StatusCode)
}

func TestDeleteImages_EmptyIsRejectedLocally(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	c := newClient(t, backend)

	err := c.DeleteImages(context.Background(), nil)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
	assert.Empty(t, backend.Requests())
}

func TestQueueStats(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	backend.OnQueue(testhelpers.Reply{Code: 200, Body: gin.H{"queued_jobs": 4, "running_jobs": 1}})
	c := newClient(t, backend)

	stats, err := c.QueueStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.QueuedJobs)
	assert.Equal(t, 1, stats.RunningJobs)

	backend.OnQueue(testhelpers.Reply{Code: 200, Body: gin.H{"error": "Failed to retrieve job counts"}})
	_, err = c.QueueStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to retrieve job counts")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
}

func TestFetchImage(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	c := newClient(t, backend)
	backend.ServeImage("cat.png", pngPixel)

	img, err := c.FetchImage(context.Background(), "/images/cat.png")
	require.NoError(t, err)
	assert.Equal(t, pngPixel, img.Data)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Extension)

	_, err = c.FetchImage(context.Background(), "/images/missing.png")
	var se *generation.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestFetchImage_DataURL(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	c := newClient(t, backend)

	img, err := c.FetchImage(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngPixel))
	require.NoError(t, err)
	assert.Equal(t, pngPixel, img.Data)
	assert.Empty(t, backend.Requests())
}

func TestCancelledContext(t *testing.T) {
	backend := testhelpers.NewFakeBackend(t)
	c := newClient(t, backend)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.TaskStatus(ctx, "task-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImage_FileName(t *testing.T) {
	tests := []struct {
		ext  string
		name string
		want string
	}{
		{ext: ".jpg", name: "image_1.png", want: "image_1.jpg"},
		{ext: ".png", name: "image_1.png", want: "image_1.png"},
		{ext: "", name: "image_1.png", want: "image_1.png"},
		{ext: ".webp", name: "plain", want: "plain.webp"},
	}
	for _, tt := range tests {
		img := &imageapi.Image{Extension: tt.ext}
		assert.Equal(t, tt.want, img.FileName(tt.name))
	}
}
