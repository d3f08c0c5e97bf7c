package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	"docverify/internal/api"
	"docverify/internal/logging"
)

// Submit validates the file locally and uploads it for verification. A
// rejected file returns *ValidationError and no request is sent.
func (c *Client) Submit(ctx context.Context, path string) (api.UploadResponse, error) {
	upload, err := c.Validate(path)
	if err != nil {
		return api.UploadResponse{}, err
	}

	file, err := os.Open(upload.Path)
	if err != nil {
		return api.UploadResponse{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	body.Grow(int(upload.Size) + 1024)
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Name))
	header.Set("Content-Type", upload.MediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return api.UploadResponse{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return api.UploadResponse{}, fmt.Errorf("read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return api.UploadResponse{}, fmt.Errorf("build multipart body: %w", err)
	}

	resp, err := c.do(ctx, "upload", http.MethodPost, "/upload", "", &body, writer.FormDataContentType())
	if err != nil {
		return api.UploadResponse{}, err
	}
	defer resp.Body.Close()

	var out api.UploadResponse
	if err := decodeJSON(resp, "upload", &out); err != nil {
		return api.UploadResponse{}, err
	}
	out.Status = api.ParseJobStatus(string(out.Status))
	if strings.TrimSpace(out.JobID) == "" {
		return api.UploadResponse{}, &TransportError{Op: "upload", StatusCode: resp.StatusCode, Detail: "response missing job_id"}
	}
	c.logger.Info("document submitted",
		logging.JobID(out.JobID),
		logging.String("file", upload.Name),
		logging.String("media_type", upload.MediaType),
		logging.Int64("size_bytes", upload.Size),
		logging.EventType("job_submitted"),
	)
	return out, nil
}
