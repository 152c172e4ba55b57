// Package testutil provides a scripted fake of the augmentation service
// for SDK and CLI tests.
package testutil

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/augmentlab/augment-go/headers"
	"github.com/augmentlab/augment-go/routes"
)

// maxMemory bounds in-memory multipart parsing; larger parts spill to disk.
const maxMemory = 32 << 20

// Reply is one scripted response. JSON is encoded when set; otherwise Body
// is written as-is with ContentType.
type Reply struct {
	Status      int
	JSON        any
	Body        []byte
	ContentType string
	// Filename is sent as the Content-Disposition attachment name.
	Filename string
}

// File is the uploaded part of a multipart request.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Request is what the backend received.
type Request struct {
	Method string
	Path   string
	Header http.Header
	JSON   map[string]any
	Form   map[string]string
	File   *File
}

// Backend routes the augmentation API with gorilla/mux and answers from
// per-route reply queues. The last reply of a queue repeats.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	replies  map[string][]Reply
	requests []Request
}

// NewBackend starts a backend that is closed when t finishes.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{replies: make(map[string][]Reply)}
	r := mux.NewRouter()
	for _, path := range []string{routes.Register, routes.Login, routes.VerifyOTP} {
		r.HandleFunc(path, b.handle).Methods(http.MethodPost)
	}
	r.HandleFunc(routes.Profile, b.handle).Methods(http.MethodGet)
	for _, path := range []string{routes.AugmentBasic, routes.AugmentAdvanced, routes.AugmentRotate, routes.AugmentRandom} {
		r.HandleFunc(path, b.handle).Methods(http.MethodPost)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the backend's base URL.
func (b *Backend) URL() string { return b.Server.URL }

// On enqueues reply for path.
func (b *Backend) On(path string, reply Reply) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[path] = append(b.replies[path], reply)
	return b
}

// Requests returns every recorded request, oldest first.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RequestsTo returns the recorded requests for path.
func (b *Backend) RequestsTo(path string) []Request {
	var out []Request
	for _, req := range b.Requests() {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (b *Backend) next(path string) (Reply, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	queue := b.replies[path]
	if len(queue) == 0 {
		return Reply{}, false
	}
	reply := queue[0]
	if len(queue) > 1 {
		b.replies[path] = queue[1:]
	}
	return reply, true
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	rec, err := record(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()

	reply, ok := b.next(r.URL.Path)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "no scripted reply for " + r.URL.Path})
		return
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if reply.JSON != nil {
		writeJSON(w, status, reply.JSON)
		return
	}
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	if reply.Filename != "" {
		w.Header().Set(headers.ContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": reply.Filename}))
	}
	w.WriteHeader(status)
	_, _ = w.Write(reply.Body)
}

func record(r *http.Request) (Request, error) {
	rec := Request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json":
		if err := json.NewDecoder(r.Body).Decode(&rec.JSON); err != nil && err != io.EOF {
			return rec, err
		}
	case strings.HasPrefix(mediaType, "multipart/"):
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return rec, err
		}
		rec.Form = make(map[string]string)
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				rec.Form[k] = v[0]
			}
		}
		for field, files := range r.MultipartForm.File {
			if len(files) == 0 {
				continue
			}
			fh := files[0]
			f, err := fh.Open()
			if err != nil {
				return rec, err
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return rec, err
			}
			rec.File = &File{
				Field:       field,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			}
		}
	}
	return rec, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
