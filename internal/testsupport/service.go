package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"docverify/internal/api"
)

// APIPrefix is the path prefix the fake service mounts its routes under.
const APIPrefix = "/api/v1"

// RecordedRequest captures what the fake service received.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
}

// RecordedUpload captures one multipart upload.
type RecordedUpload struct {
	Filename    string
	ContentType string
	Size        int
}

// FakeService is an in-process stand-in for the verification service.
// Status replies follow a per-job script; the last scripted entry repeats.
type FakeService struct {
	Server *httptest.Server

	mu           sync.Mutex
	nextJobID    string
	uploadCode   int
	statuses     map[string][]api.StatusResponse
	statusCalls  map[string]int
	statusErrors map[string][]int
	results      map[string]any
	resultCodes  map[string]int
	resultCalls  map[string]int
	artifacts    map[string]map[string][]byte
	health       api.HealthResponse
	reviews      []api.ManualReviewItem
	decisions    map[string]api.ManualReviewDecision
	requests     []RecordedRequest
	uploads      []RecordedUpload
}

// NewFakeService starts a fake service that is closed when the test ends.
func NewFakeService(t testing.TB) *FakeService {
	t.Helper()

	f := &FakeService{
		nextJobID:    "3f2a91c0-5e1d-4d7a-9a51-0c7e2b1d4f10",
		statuses:     make(map[string][]api.StatusResponse),
		statusCalls:  make(map[string]int),
		statusErrors: make(map[string][]int),
		results:      make(map[string]any),
		resultCodes:  make(map[string]int),
		resultCalls:  make(map[string]int),
		artifacts:    make(map[string]map[string][]byte),
		decisions:    make(map[string]api.ManualReviewDecision),
		health: api.HealthResponse{
			Status:             "healthy",
			ModelsLoaded:       true,
			DiskSpaceAvailable: true,
			Version:            "1.0.0",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+APIPrefix+"/upload", f.handleUpload)
	mux.HandleFunc("GET "+APIPrefix+"/status/{job_id}", f.handleStatus)
	mux.HandleFunc("GET "+APIPrefix+"/results/{job_id}", f.handleResults)
	mux.HandleFunc("GET "+APIPrefix+"/download/{job_id}/{file_type}", f.handleDownload)
	mux.HandleFunc("GET "+APIPrefix+"/health", f.handleHealth)
	mux.HandleFunc("GET "+APIPrefix+"/manual-review", f.handleReviewQueue)
	mux.HandleFunc("POST "+APIPrefix+"/manual-review/{job_id}", f.handleReviewDecision)

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()})
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API base URL of the fake service.
func (f *FakeService) URL() string {
	return f.Server.URL + APIPrefix
}

// SetNextJobID sets the job id returned by the next upload.
func (f *FakeService) SetNextJobID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextJobID = id
}

// FailUploads makes POST /upload answer with code; zero restores success.
func (f *FakeService) FailUploads(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCode = code
}

// ScriptStatus sets the sequence of status replies for jobID.
func (f *FakeService) ScriptStatus(jobID string, seq ...api.StatusResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range seq {
		if seq[i].JobID == "" {
			seq[i].JobID = jobID
		}
	}
	f.statuses[jobID] = seq
}

// FailStatus makes the next status calls for jobID answer with the given HTTP codes.
func (f *FakeService) FailStatus(jobID string, codes ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusErrors[jobID] = append(f.statusErrors[jobID], codes...)
}

// SetResult sets the results payload for jobID; payload is JSON-encoded as is.
func (f *FakeService) SetResult(jobID string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[jobID] = payload
	delete(f.resultCodes, jobID)
}

// SetResultCode makes GET /results/{jobID} answer with code.
func (f *FakeService) SetResultCode(jobID string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultCodes[jobID] = code
}

// SetArtifact registers downloadable content for jobID under fileType.
func (f *FakeService) SetArtifact(jobID, fileType string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.artifacts[jobID] == nil {
		f.artifacts[jobID] = make(map[string][]byte)
	}
	f.artifacts[jobID][fileType] = data
}

// SetHealth overrides the health payload.
func (f *FakeService) SetHealth(h api.HealthResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.health = h
}

// AddReview queues an item for manual review.
func (f *FakeService) AddReview(item api.ManualReviewItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, item)
}

// Decision returns the recorded review decision for jobID.
func (f *FakeService) Decision(jobID string) (api.ManualReviewDecision, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decisions[jobID]
	return d, ok
}

// Requests returns a copy of every request received so far.
func (f *FakeService) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Uploads returns a copy of every upload received so far.
func (f *FakeService) Uploads() []RecordedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedUpload, len(f.uploads))
	copy(out, f.uploads)
	return out
}

// StatusCalls returns how many status requests were served for jobID.
func (f *FakeService) StatusCalls(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[jobID]
}

// ResultCalls returns how many result requests were served for jobID.
func (f *FakeService) ResultCalls(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resultCalls[jobID]
}

func (f *FakeService) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	f.mu.Lock()
	f.uploads = append(f.uploads, RecordedUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        len(data),
	})
	jobID := f.nextJobID
	uploadCode := f.uploadCode
	f.mu.Unlock()

	if uploadCode != 0 {
		writeDetail(w, uploadCode, "Failed to save file")
		return
	}

	writeJSON(w, http.StatusOK, api.UploadResponse{
		JobID:   jobID,
		Status:  api.StatusProcessing,
		Message: "File uploaded successfully. Processing started.",
	})
}

func (f *FakeService) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	f.mu.Lock()
	call := f.statusCalls[jobID]
	f.statusCalls[jobID] = call + 1
	if codes := f.statusErrors[jobID]; len(codes) > 0 {
		f.statusErrors[jobID] = codes[1:]
		f.mu.Unlock()
		writeDetail(w, codes[0], "status unavailable")
		return
	}
	seq, ok := f.statuses[jobID]
	f.mu.Unlock()

	if !ok || len(seq) == 0 {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	idx := call
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	writeJSON(w, http.StatusOK, seq[idx])
}

func (f *FakeService) handleResults(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	f.mu.Lock()
	f.resultCalls[jobID]++
	code, hasCode := f.resultCodes[jobID]
	payload, ok := f.results[jobID]
	f.mu.Unlock()

	if hasCode {
		writeDetail(w, code, http.StatusText(code))
		return
	}
	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	if raw, isRaw := payload.(json.RawMessage); isRaw {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (f *FakeService) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	fileType := r.PathValue("file_type")

	f.mu.Lock()
	data, ok := f.artifacts[jobID][fileType]
	f.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (f *FakeService) handleHealth(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	h := f.health
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, h)
}

func (f *FakeService) handleReviewQueue(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	items := make([]api.ManualReviewItem, len(f.reviews))
	copy(items, f.reviews)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, api.ManualReviewResponse{PendingReviews: items, TotalCount: len(items)})
}

func (f *FakeService) handleReviewDecision(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	var decision api.ManualReviewDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	f.mu.Lock()
	known := false
	for _, item := range f.reviews {
		if item.JobID == jobID {
			known = true
			break
		}
	}
	if known {
		f.decisions[jobID] = decision
	}
	f.mu.Unlock()

	if !known {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, api.ManualReviewAck{
		JobID:    jobID,
		Decision: decision.Decision,
		Message:  "Manual review decision recorded",
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, api.ErrorResponse{Detail: detail})
}
