package api_test

import (
	"encoding/json"
	"strings"
	"testing"

	"docverify/internal/api"
)

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"processing", false},
		{"completed", true},
		{"failed", true},
		{" COMPLETED ", true},
		{"", false},
		{"queued", false},
	}
	for _, tt := range tests {
		if got := api.ParseJobStatus(tt.raw).IsTerminal(); got != tt.want {
			t.Errorf("ParseJobStatus(%q).IsTerminal() = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeResultWithOptionalSectionsAbsent(t *testing.T) {
	payload := `{
		"job_id": "job-1",
		"status": "completed",
		"validation_result": {
			"overall_status": "SUSPICIOUS",
			"overall_confidence": 0.61,
			"forgery_check": {"is_forged": false, "confidence": 0.9}
		},
		"timestamp": "2024-05-01T10:00:00.123456"
	}`
	var resp api.ResultsResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.HasResult() {
		t.Fatal("expected validation result")
	}
	vr := resp.ValidationResult
	if vr.HasQR() || vr.HasOCR() || vr.HasCrossValidation() || vr.HasAadhaarValidation() {
		t.Fatalf("expected optional sections absent: %+v", vr)
	}
	if vr.ForgeryCheck.HasAnnotatedImage() {
		t.Fatal("expected no annotated image")
	}
	if resp.ProcessingTime != nil {
		t.Fatal("expected processing time absent")
	}
	if _, err := api.ParseTimestamp(resp.Timestamp); err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
}

func TestCheckInvariants(t *testing.T) {
	attempt := 5
	tests := []struct {
		name   string
		result api.ValidationResult
		want   string
	}{
		{
			name:   "valid",
			result: api.ValidationResult{OverallStatus: api.OverallValid, OverallConfidence: 0.9},
		},
		{
			name: "manual review with decoded qr",
			result: api.ValidationResult{
				OverallStatus: api.OverallManualReview,
				QRValidation:  &api.QRValidation{Decoded: true},
			},
			want: "MANUAL_REVIEW",
		},
		{
			name:   "confidence out of range",
			result: api.ValidationResult{OverallStatus: api.OverallValid, OverallConfidence: 1.4},
			want:   "overall_confidence",
		},
		{
			name:   "unknown verdict",
			result: api.ValidationResult{OverallStatus: "MAYBE"},
			want:   "unknown overall_status",
		},
		{
			name: "attempt out of range",
			result: api.ValidationResult{
				OverallStatus: api.OverallValid,
				QRValidation:  &api.QRValidation{Decoded: true, AttemptNumber: &attempt},
			},
			want: "attempt_number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.result.CheckInvariants()
			if tt.want == "" {
				if len(problems) != 0 {
					t.Fatalf("expected no problems, got %v", problems)
				}
				return
			}
			if !strings.Contains(strings.Join(problems, "; "), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, problems)
			}
		})
	}
}

func TestParseReportKind(t *testing.T) {
	tests := []struct {
		raw      string
		want     api.ReportKind
		fileType string
	}{
		{"pdf", api.ReportPDF, "report.pdf"},
		{"HTML", api.ReportHTML, "report.html"},
		{"data.json", api.ReportJSON, "data.json"},
		{"annotated", api.ReportAnnotated, "annotated_forgery.jpg"},
		{"splicing", api.ReportSplicing, "splicing_map.png"},
		{"splicing_map.png", api.ReportSplicing, "splicing_map.png"},
	}
	for _, tt := range tests {
		kind, err := api.ParseReportKind(tt.raw)
		if err != nil {
			t.Fatalf("ParseReportKind(%q): %v", tt.raw, err)
		}
		if kind != tt.want || kind.FileType() != tt.fileType {
			t.Fatalf("ParseReportKind(%q) = %q/%q", tt.raw, kind, kind.FileType())
		}
	}
	if _, err := api.ParseReportKind("docx"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestParseReviewDecision(t *testing.T) {
	if d, err := api.ParseReviewDecision("approved"); err != nil || d != api.DecisionApproved {
		t.Fatalf("unexpected decision %q err=%v", d, err)
	}
	if _, err := api.ParseReviewDecision("maybe"); err == nil {
		t.Fatal("expected error")
	}
}
