package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/pkg/testhelpers"
)

type cli struct {
	backend *testhelpers.FakeBackend
	base    []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	backend := testhelpers.NewFakeBackend(t)
	return &cli{
		backend: backend,
		base: []string{
			"--api-url", backend.URL(),
			"--storage", "file",
			"--storage-path", filepath.Join(t.TempDir(), "storage.json"),
			"--log-level", "error",
		},
	}
}

func (c *cli) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append(append([]string(nil), c.base...), args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (c *cli) records(t *testing.T) []gallery.ImageRecord {
	t.Helper()
	out, _, err := c.run(t, "gallery", "list", "--json")
	require.NoError(t, err)
	var records []gallery.ImageRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	return records
}

func TestGenerate(t *testing.T) {
	c := newCLI(t)

	out, stderr, err := c.run(t, "generate", "--prompt", "a cat", "--aspect-ratio", "16:9", "--refine")
	require.NoError(t, err)
	assert.Equal(t, c.backend.URL()+"/images/original_cat.png\n", out)
	assert.Contains(t, stderr, `submitting "a cat"`)

	records := c.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, "a cat", records[0].Prompt)
	assert.Equal(t, "16:9", records[0].AspectRatio)
	assert.Equal(t, "a fluffy cat", records[0].RefinedPrompt)

	submits := c.backend.RequestsTo(http.MethodPost, "/generate-image")
	require.Len(t, submits, 1)
	assert.JSONEq(t, `{"prompt":"a cat","aspectRatio":"16:9","usePromptRefiner":true}`, submits[0].Body)
}

func TestGenerate_Batch(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run(t, "generate", "-q", "-p", "one", "-p", "two", "-p", "three")
	require.NoError(t, err)
	assert.Equal(t, 3, bytes.Count([]byte(out), []byte("\n")))
	assert.Len(t, c.records(t), 3)
	assert.Len(t, c.backend.RequestsTo(http.MethodPost, "/generate-image"), 3)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(b *testhelpers.FakeBackend)
		args    []string
		message string
	}{
		{
			name:    "task failure without retries",
			setup:   func(b *testhelpers.FakeBackend) { b.OnStatus(testhelpers.Failure("out of memory")) },
			args:    []string{"--polling-mode", "simple", "generate", "-p", "cat"},
			message: "Error: out of memory. Max retries reached.",
		},
		{
			name: "submission rejected",
			setup: func(b *testhelpers.FakeBackend) {
				b.OnGenerate(testhelpers.Reply{Code: http.StatusUnprocessableEntity, Body: gin.H{"detail": "bad"}})
			},
			args:    []string{"generate", "-p", "cat"},
			message: generation.MsgSubmitRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			tt.setup(c.backend)

			_, stderr, err := c.run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "1 of 1 generations did not complete")
			assert.Contains(t, stderr, tt.message)
			assert.Empty(t, c.records(t))
		})
	}
}

func TestGenerate_Validation(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run(t, "generate")
	assert.EqualError(t, err, generation.MsgEmptyPrompt)

	_, _, err = c.run(t, "generate", "-p", "cat", "-a", "7:5")
	assert.ErrorContains(t, err, "unsupported aspect ratio")
	assert.Empty(t, c.backend.Requests())
}

func TestGallery(t *testing.T) {
	c := newCLI(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	c.backend.ServeImage("cat.png", png)

	_, _, err := c.run(t, "generate", "-q", "-p", "a cat")
	require.NoError(t, err)

	out, _, err := c.run(t, "gallery", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "1 image(s)")

	out, _, err = c.run(t, "gallery", "show", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Prompt:         a cat")
	assert.Contains(t, out, "Refined prompt: a fluffy cat")
	assert.Contains(t, out, "Download:       "+c.backend.URL()+"/images/cat.png")

	dest := filepath.Join(t.TempDir(), "cat.png")
	_, _, err = c.run(t, "gallery", "download", "0", "-o", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	_, _, err = c.run(t, "gallery", "show", "5")
	assert.Error(t, err)

	_, _, err = c.run(t, "gallery", "remove", "0")
	require.NoError(t, err)
	deletes := c.backend.RequestsTo(http.MethodDelete, "/delete-images/")
	require.Len(t, deletes, 1)
	assert.JSONEq(t, `{"image_ids":["original_cat.png","cat.png"]}`, deletes[0].Body)
	assert.Empty(t, c.records(t))

	out, _, err = c.run(t, "gallery", "list")
	require.NoError(t, err)
	assert.Equal(t, "Gallery is empty\n", out)
}

func TestGallery_ClearRejected(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run(t, "generate", "-q", "-p", "one", "-p", "two")
	require.NoError(t, err)

	c.backend.OnDelete(testhelpers.Reply{Code: http.StatusInternalServerError, Body: gin.H{}})
	_, stderr, err := c.run(t, "gallery", "clear")
	require.Error(t, err)
	assert.Contains(t, stderr, gallery.MsgClearRejected)
	assert.Len(t, c.records(t), 2)

	c.backend.OnDelete(testhelpers.Reply{Code: http.StatusOK, Body: gin.H{}})
	out, _, err := c.run(t, "gallery", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Gallery cleared\n", out)
	assert.Empty(t, c.records(t))
}

func TestTheme(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run(t, "theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	_, _, err = c.run(t, "theme", "set", "dark")
	require.NoError(t, err)

	out, _, err = c.run(t, "theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	_, _, err = c.run(t, "theme", "set", "neon")
	assert.Error(t, err)
}

func TestJobs(t *testing.T) {
	c := newCLI(t)
	c.backend.OnQueue(testhelpers.Reply{Code: http.StatusOK, Body: gin.H{"queued_jobs": 4, "running_jobs": 2}})

	out, _, err := c.run(t, "jobs")
	require.NoError(t, err)
	assert.Equal(t, "Queued jobs:  4\nRunning jobs: 2\n", out)

	c.backend.OnQueue(testhelpers.Reply{Code: http.StatusOK, Body: gin.H{"error": "redis down"}})
	_, _, err = c.run(t, "jobs")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run(t, "config", "show", "--format", "json", "--provenance")
	require.NoError(t, err)
	assert.Contains(t, out, `"api_key": "********"`)
	assert.Contains(t, out, `"base_url": "`+c.backend.URL()+`"`)
	assert.Contains(t, out, "api.base_url: cli-flags (priority 600)")

	out, _, err = c.run(t, "config", "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "mode: retry")

	out, _, err = c.run(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"polling"`)
}
