package present_test

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"docverify/internal/api"
	"docverify/internal/present"
	"docverify/internal/stages"
	"docverify/internal/testsupport"
)

func ptr[T any](v T) *T { return &v }

func TestFullResultRendersEveryViewWithoutPlaceholders(t *testing.T) {
	resp := testsupport.FullResult("job-1")
	views := present.RenderAll(&resp, present.AllViews())
	if len(views) != 5 {
		t.Fatalf("expected 5 views, got %d", len(views))
	}
	for _, v := range views {
		if v.Degraded {
			t.Fatalf("view %s unexpectedly degraded: %+v", v.View, v)
		}
		if len(v.Lines) == 0 {
			t.Fatalf("view %s has no lines", v.View)
		}
	}
}

func TestForgeryOnlyResultDegradesFourViews(t *testing.T) {
	resp := testsupport.ForgeryOnlyResult("job-2", api.OverallSuspicious)
	degraded := 0
	for _, v := range present.RenderAll(&resp, present.AllViews()) {
		if v.Degraded {
			degraded++
		}
		if v.View == present.ViewSummary && v.Degraded {
			t.Fatal("summary must render fully from the mandatory fields")
		}
	}
	if degraded != 4 {
		t.Fatalf("expected 4 degraded views, got %d", degraded)
	}

	forgery := present.Render(present.ViewForgery, &resp)
	if !containsLine(forgery.Notes, present.MsgNoVisualAnalysis) {
		t.Fatalf("expected visual analysis placeholder, got %+v", forgery.Notes)
	}
	qr := present.Render(present.ViewQR, &resp)
	if !containsLine(qr.Notes, present.MsgQRNotDecoded) {
		t.Fatalf("expected QR placeholder, got %+v", qr.Notes)
	}
}

func TestSplicingMapPointsAtDownloadCommand(t *testing.T) {
	resp := testsupport.ForgeryOnlyResult("job-4", api.OverallSuspicious)
	resp.ValidationResult.ForgeryCheck.SplicingMapURL = "/api/v1/download/job-4/splicing_map.png"

	forgery := present.Render(present.ViewForgery, &resp)
	if !containsLine(forgery.Lines, "Splicing Map: /api/v1/download/job-4/splicing_map.png") {
		t.Fatalf("expected splicing map line, got %+v", forgery.Lines)
	}
	if !containsLine(forgery.Notes, "Save it with `docverify download <job-id> splicing`.") {
		t.Fatalf("expected splicing download hint, got %+v", forgery.Notes)
	}
}

func TestQRNotDecodedScenario(t *testing.T) {
	resp := testsupport.FullResult("job-3")
	resp.ValidationResult.OverallStatus = api.OverallManualReview
	resp.ValidationResult.QRValidation = &api.QRValidation{Decoded: false}

	qr := present.Render(present.ViewQR, &resp)
	if !containsLine(qr.Lines, "Status: Not Decoded") {
		t.Fatalf("expected Not Decoded, got %+v", qr.Lines)
	}
	if !containsLine(qr.Notes, present.MsgQRNotDecoded) {
		t.Fatalf("expected manual review hint, got %+v", qr.Notes)
	}
	if qr.Table != nil {
		t.Fatal("undecoded QR must not show a data table")
	}

	forgery := present.Render(present.ViewForgery, &resp)
	if forgery.Degraded || !containsLine(forgery.Lines, "Status: Genuine") {
		t.Fatalf("forgery view must render independently of QR: %+v", forgery)
	}
}

func TestQRDecodedShowsAttemptAndFields(t *testing.T) {
	resp := testsupport.FullResult("job-4")
	qr := present.Render(present.ViewQR, &resp)
	if !containsLine(qr.Lines, "Successful on attempt 2/4") {
		t.Fatalf("expected attempt line, got %+v", qr.Lines)
	}
	if !containsLine(qr.Lines, "Method: adaptive_threshold") {
		t.Fatalf("expected method line, got %+v", qr.Lines)
	}
	if qr.Table == nil || len(qr.Table.Rows) != 5 {
		t.Fatalf("expected five field rows, got %+v", qr.Table)
	}
	address := qr.Table.Rows[4]
	if address[0] != "Address" || address[1] != present.Placeholder {
		t.Fatalf("expected placeholder for missing address, got %v", address)
	}
}

func TestOCRAndValidationTables(t *testing.T) {
	resp := testsupport.FullResult("job-5")

	ocr := present.Render(present.ViewOCR, &resp)
	if ocr.Table == nil || len(ocr.Table.Rows) != 5 {
		t.Fatalf("unexpected OCR table %+v", ocr.Table)
	}
	if got := ocr.Table.Rows[0]; got[1] != "Asha Verma" || got[2] != "93.0%" {
		t.Fatalf("unexpected OCR name row %v", got)
	}
	if got := ocr.Table.Rows[3]; got[1] != present.Placeholder || got[2] != "20.0%" {
		t.Fatalf("expected null OCR value rendered as placeholder, got %v", got)
	}

	validation := present.Render(present.ViewValidation, &resp)
	if !containsLine(validation.Lines, "Overall Match: 95.0%") {
		t.Fatalf("unexpected validation lines %+v", validation.Lines)
	}
	if !containsLine(validation.Lines, "Aadhaar Checksum: Valid") {
		t.Fatalf("expected checksum line, got %+v", validation.Lines)
	}
	if got := validation.Table.Rows[3]; got[1] != present.Placeholder {
		t.Fatalf("expected missing gender match placeholder, got %v", got)
	}
	if got := validation.Table.Rows[2]; got[1] != "Match" || got[2] != "85.0%" {
		t.Fatalf("similarity must print as a 0-100 score, got %v", got)
	}
	if validation.Kind != present.KindOK {
		t.Fatalf("expected ok kind for a 95 overall match, got %v", validation.Kind)
	}
}

func TestValidationBelowMatchThresholdWarns(t *testing.T) {
	resp := testsupport.FullResult("job-6")
	resp.ValidationResult.CrossValidation.OverallMatch = 62.5

	validation := present.Render(present.ViewValidation, &resp)
	if validation.Kind != present.KindWarn {
		t.Fatalf("expected warning below the match threshold, got %v", validation.Kind)
	}
	if !containsLine(validation.Lines, "Overall Match: 62.5%") {
		t.Fatalf("unexpected validation lines %+v", validation.Lines)
	}
}

func TestBanner(t *testing.T) {
	tests := []struct {
		status   api.OverallStatus
		forged   bool
		kind     present.Kind
		headline string
		subline  string
	}{
		{api.OverallValid, false, present.KindOK, "Aadhaar Verified Successfully", "94% Overall Confidence"},
		{api.OverallSuspicious, false, present.KindWarn, "Verification Completed with Warnings", "94% Overall Confidence"},
		{api.OverallInvalid, true, present.KindError, "Aadhaar Validation Failed", "Forgery detected"},
		{api.OverallInvalid, false, present.KindError, "Aadhaar Validation Failed", "Validation failed"},
		{api.OverallManualReview, false, present.KindInfo, "Manual Review Required", "QR code could not be decoded"},
	}
	for _, tc := range tests {
		res := &api.ValidationResult{
			OverallStatus:     tc.status,
			OverallConfidence: 0.94,
			ForgeryCheck:      api.ForgeryCheck{IsForged: tc.forged},
		}
		kind, headline, subline := present.Banner(res)
		if kind != tc.kind || headline != tc.headline || subline != tc.subline {
			t.Fatalf("Banner(%s, forged=%v) = %v %q %q", tc.status, tc.forged, kind, headline, subline)
		}
	}
}

func TestSummaryIncludesProcessingTimeOnlyWhenPresent(t *testing.T) {
	full := testsupport.FullResult("job-6")
	summary := present.Render(present.ViewSummary, &full)
	if !containsLine(summary.Lines, "Processing Time: 41.70 seconds") {
		t.Fatalf("expected processing time, got %+v", summary.Lines)
	}
	if !containsLine(summary.Lines, "Confidence Score: 94.0%") {
		t.Fatalf("expected confidence, got %+v", summary.Lines)
	}

	minimal := testsupport.ForgeryOnlyResult("job-6", api.OverallValid)
	summary = present.Render(present.ViewSummary, &minimal)
	for _, line := range summary.Lines {
		if strings.HasPrefix(line, "Processing Time") {
			t.Fatalf("unexpected processing time line %q", line)
		}
	}
}

func TestRenderWithoutResultIsNotFound(t *testing.T) {
	resp := api.ResultsResponse{JobID: "job-7", Status: api.StatusFailed}
	for _, v := range present.AllViews() {
		out := present.Render(v, &resp)
		if !out.Degraded || out.Lines[0] != present.MsgNoResults || out.View != v {
			t.Fatalf("expected not-found rendering for %s, got %+v", v, out)
		}
	}
	if out := present.Render(present.ViewSummary, nil); out.Lines[0] != present.MsgNoResults {
		t.Fatalf("nil response must render not-found, got %+v", out)
	}
}

func TestParseViews(t *testing.T) {
	views, err := present.ParseViews("qr, Summary,qr")
	if err != nil {
		t.Fatalf("ParseViews: %v", err)
	}
	if len(views) != 2 || views[0] != present.ViewQR || views[1] != present.ViewSummary {
		t.Fatalf("unexpected views %v", views)
	}
	if all, _ := present.ParseViews("all"); len(all) != 5 {
		t.Fatalf("expected all views, got %v", all)
	}
	if _, err := present.ParseViews("barcode"); err == nil {
		t.Fatal("expected unknown view error")
	}
}

func TestRenderStepper(t *testing.T) {
	states := stages.Map("qr_scanning", stages.Defaults())
	status := &api.StatusResponse{
		Status:             api.StatusProcessing,
		CurrentStage:       "qr_scanning",
		ProgressPercentage: 60,
		StageDetails: &api.StageDetails{
			StageName:        "QR Decoding",
			StageDescription: "Trying progressive preprocessing",
			CurrentAttempt:   ptr(2),
			TotalAttempts:    ptr(4),
		},
		EstimatedTimeRemaining: ptr(12),
	}
	lines := present.RenderStepper(states, status, false)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"[✓] Upload",
		"[✓] Forgery Localization",
		"[▶] QR Decoding",
		"[5] OCR Extraction",
		"Overall Progress:",
		"60%",
		"Attempt 2 of 4",
		"Estimated time remaining: ~12 seconds",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("stepper output missing %q:\n%s", want, joined)
		}
	}

	bare := present.RenderStepper(stages.Map("", stages.Defaults()), nil, false)
	if len(bare) != 6 || strings.Contains(strings.Join(bare, ""), "✓") {
		t.Fatalf("expected six pending stages, got %v", bare)
	}
}

func TestWriteFormats(t *testing.T) {
	resp := testsupport.FullResult("job-8")
	doc := present.Document{
		JobID:  resp.JobID,
		Status: resp.Status,
		State:  "loaded",
		Views:  present.RenderAll(&resp, []present.View{present.ViewSummary, present.ViewQR}),
	}

	var text bytes.Buffer
	if err := present.Write(&text, present.FormatText, doc, false); err != nil {
		t.Fatalf("write text: %v", err)
	}
	for _, want := range []string{"== Summary ==", "Aadhaar Verified Successfully", "== QR Code ==", "Asha Verma"} {
		if !strings.Contains(text.String(), want) {
			t.Fatalf("text output missing %q:\n%s", want, text.String())
		}
	}
	if strings.Contains(text.String(), "\x1b[") {
		t.Fatal("uncoloured output contains ANSI escapes")
	}

	var jsonOut bytes.Buffer
	if err := present.Write(&jsonOut, present.FormatJSON, doc, false); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded present.Document
	if err := json.Unmarshal(jsonOut.Bytes(), &decoded); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if decoded.JobID != "job-8" || len(decoded.Views) != 2 {
		t.Fatalf("unexpected json document %+v", decoded)
	}

	var yamlOut bytes.Buffer
	if err := present.Write(&yamlOut, present.FormatYAML, doc, false); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(yamlOut.Bytes(), &generic); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if generic["job_id"] != "job-8" {
		t.Fatalf("unexpected yaml document %v", generic)
	}
}

func TestStatusLineAndColor(t *testing.T) {
	got := present.StatusLine("Service", present.KindError, "Unreachable", false)
	if got != "  Service:             [ERROR] Unreachable" {
		t.Fatalf("unexpected status line %q", got)
	}
	colored := present.StatusLine("Service", present.KindOK, "Healthy", true)
	if !strings.HasPrefix(colored, "\x1b[32m") || !strings.HasSuffix(colored, "\x1b[0m") {
		t.Fatalf("expected green line, got %q", colored)
	}
	if present.ShouldColorize(io.Discard) {
		t.Fatal("non-file writer must not colorize")
	}
}

func containsLine(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}
	return false
}
