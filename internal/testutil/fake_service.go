// fake_service.go - In-process stand-in for the remote analysis service
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// UploadCall records one upload request received by the fake.
type UploadCall struct {
	FileName    string
	ContentType string
	Data        []byte
}

// QueryCall records one query request received by the fake.
type QueryCall struct {
	SessionID   string
	ContentType string
	Query       string
}

// Reply describes how the fake answers an exchange. A zero Status means 200
// (upload answers 201, like the hosted service).
type Reply struct {
	Status int
	Body   string
	Delay  time.Duration
}

// FakeService is an httptest server speaking the upload/query protocol.
type FakeService struct {
	Server *httptest.Server

	mu          sync.Mutex
	uploads     []UploadCall
	queries     []QueryCall
	uploadReply Reply
	queryReply  Reply
}

// NewFakeService starts a fake that hands out session "s1" and answers
// every query with "ok". Close it with t.Cleanup(f.Close).
func NewFakeService() *FakeService {
	f := &FakeService{
		uploadReply: Reply{Status: http.StatusCreated, Body: `{"response":{"message":"Database resume.pdf created","session_id":"s1"}}`},
		queryReply:  Reply{Body: `{"response":{"answer":"ok","sources":["resume.pdf"]}}`},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", f.handleUpload)
	mux.HandleFunc("/query", f.handleQuery)
	f.Server = httptest.NewServer(mux)
	return f
}

// URL returns the fake's base origin.
func (f *FakeService) URL() string {
	return f.Server.URL
}

// Close shuts the server down.
func (f *FakeService) Close() {
	f.Server.CloseClientConnections()
	f.Server.Close()
}

// SetUploadReply changes the upload answer.
func (f *FakeService) SetUploadReply(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadReply = r
}

// SetQueryReply changes the query answer.
func (f *FakeService) SetQueryReply(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryReply = r
}

// Uploads returns a copy of the recorded upload calls.
func (f *FakeService) Uploads() []UploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]UploadCall(nil), f.uploads...)
}

// Queries returns a copy of the recorded query calls.
func (f *FakeService) Queries() []QueryCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]QueryCall(nil), f.queries...)
}

func (f *FakeService) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"detail":"file required"}`, http.StatusUnprocessableEntity)
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	f.mu.Lock()
	f.uploads = append(f.uploads, UploadCall{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	reply := f.uploadReply
	f.mu.Unlock()

	writeReply(w, r, reply, http.StatusCreated)
}

func (f *FakeService) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"detail":"invalid body"}`, http.StatusUnprocessableEntity)
		return
	}

	f.mu.Lock()
	f.queries = append(f.queries, QueryCall{
		SessionID:   r.Header.Get("X-Session-ID"),
		ContentType: r.Header.Get("Content-Type"),
		Query:       body.Query,
	})
	reply := f.queryReply
	f.mu.Unlock()

	writeReply(w, r, reply, http.StatusOK)
}

func writeReply(w http.ResponseWriter, r *http.Request, reply Reply, defaultStatus int) {
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}
	status := reply.Status
	if status == 0 {
		status = defaultStatus
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, reply.Body)
}
