// Package testhelpers provides an in-process image backend for tests.
package testhelpers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// Reply is one scripted answer: an HTTP status and a JSON body.
type Reply struct {
	Code int
	Body any
}

func Pending() Reply {
	return Reply{Code: http.StatusOK, Body: gin.H{"status": "PENDING"}}
}

func Success(imageURL, description, refinedPrompt string) Reply {
	return Reply{Code: http.StatusOK, Body: gin.H{
		"status": "SUCCESS",
		"result": gin.H{"image_url": imageURL, "description": description, "refined_prompt": refinedPrompt},
	}}
}

func Failure(reason string) Reply {
	return Reply{Code: http.StatusOK, Body: gin.H{"status": "FAILURE", "result": reason}}
}

func ServerError() Reply {
	return Reply{Code: http.StatusInternalServerError, Body: gin.H{"detail": "Failed to retrieve task status"}}
}

// Recorded is a request as the fake backend saw it.
type Recorded struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// FakeBackend mimics the generation service: generate-image, task-status,
// delete-images, jobs/queued and static images.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	generate Reply
	statuses []Reply
	polled   int
	delete   Reply
	queue    Reply
	images   map[string][]byte
	requests []Recorded
}

// NewFakeBackend starts a backend that hands out task "task-1" and reports
// SUCCESS on the first poll. The server closes with the test.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeBackend{
		generate: Reply{Code: http.StatusOK, Body: gin.H{"task_id": "task-1"}},
		statuses: []Reply{Success("/images/original_cat.png", "a cat", "a fluffy cat")},
		delete:   Reply{Code: http.StatusOK, Body: gin.H{"detail": "All files deleted successfully"}},
		queue:    Reply{Code: http.StatusOK, Body: gin.H{"queued_jobs": 0, "running_jobs": 0}},
		images:   map[string][]byte{},
	}

	r := gin.New()
	r.Use(f.record)
	r.POST("/generate-image", func(c *gin.Context) { f.reply(c, f.generate) })
	r.GET("/task-status/:taskId", func(c *gin.Context) {
		f.mu.Lock()
		i := min(f.polled, len(f.statuses)-1)
		f.polled++
		reply := f.statuses[i]
		f.mu.Unlock()
		f.reply(c, reply)
	})
	r.DELETE("/delete-images/", func(c *gin.Context) { f.reply(c, f.delete) })
	r.GET("/jobs/queued", func(c *gin.Context) { f.reply(c, f.queue) })
	r.GET("/images/:name", func(c *gin.Context) {
		f.mu.Lock()
		data, ok := f.images[c.Param("name")]
		f.mu.Unlock()
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, http.DetectContentType(data), data)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// OnGenerate scripts the generate-image answer.
func (f *FakeBackend) OnGenerate(reply Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generate = reply
}

// OnStatus scripts task-status answers in order; the last one repeats.
func (f *FakeBackend) OnStatus(replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = replies
	f.polled = 0
}

func (f *FakeBackend) OnDelete(reply Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delete = reply
}

func (f *FakeBackend) OnQueue(reply Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = reply
}

// ServeImage makes data available at /images/name.
func (f *FakeBackend) ServeImage(name string, data []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[name] = data
	return fmt.Sprintf("%s/images/%s", f.Server.URL, name)
}

// Requests returns every request received so far.
func (f *FakeBackend) Requests() []Recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Recorded(nil), f.requests...)
}

// RequestsTo returns the requests whose path starts with prefix.
func (f *FakeBackend) RequestsTo(method, prefix string) []Recorded {
	var out []Recorded
	for _, r := range f.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeBackend) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	f.mu.Lock()
	f.requests = append(f.requests, Recorded{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Header: c.Request.Header.Clone(),
		Body:   string(body),
	})
	f.mu.Unlock()
	c.Next()
}

func (f *FakeBackend) reply(c *gin.Context, r Reply) {
	if s, ok := r.Body.(string); ok {
		c.String(r.Code, s)
		return
	}
	c.JSON(r.Code, r.Body)
}
