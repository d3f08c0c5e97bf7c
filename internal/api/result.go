package api

import (
	"fmt"
	"strings"
	"time"
)

// OverallStatus is the verdict of a completed verification.
type OverallStatus string

const (
	OverallValid        OverallStatus = "VALID"
	OverallSuspicious   OverallStatus = "SUSPICIOUS"
	OverallInvalid      OverallStatus = "INVALID"
	OverallManualReview OverallStatus = "MANUAL_REVIEW"
)

// Known reports whether the verdict is one of the four defined values.
func (s OverallStatus) Known() bool {
	switch s {
	case OverallValid, OverallSuspicious, OverallInvalid, OverallManualReview:
		return true
	default:
		return false
	}
}

// ForgeryCheck is the mandatory forgery detection section.
type ForgeryCheck struct {
	IsForged             bool     `json:"is_forged"`
	Confidence           float64  `json:"confidence"`
	SplicingMapURL       string   `json:"splicing_map_url,omitempty"`
	AnnotatedImageURL    string   `json:"annotated_image_url,omitempty"`
	ForgedAreaPercentage *float64 `json:"forged_area_percentage,omitempty"`
}

// HasAnnotatedImage reports whether a visual forgery overlay was produced.
func (f ForgeryCheck) HasAnnotatedImage() bool {
	return strings.TrimSpace(f.AnnotatedImageURL) != ""
}

// QRData holds the demographic fields decoded from the card's QR code.
type QRData struct {
	Name          string `json:"name,omitempty"`
	AadhaarNumber string `json:"aadhaar_number,omitempty"`
	DOB           string `json:"dob,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Address       string `json:"address,omitempty"`
}

// Fields returns the decoded values in display order.
func (d QRData) Fields() []NamedValue {
	return []NamedValue{
		{Field: FieldName, Value: d.Name},
		{Field: FieldAadhaarNumber, Value: d.AadhaarNumber},
		{Field: FieldDOB, Value: d.DOB},
		{Field: FieldGender, Value: d.Gender},
		{Field: FieldAddress, Value: d.Address},
	}
}

// QRValidation is the optional QR decoding section.
type QRValidation struct {
	Decoded       bool    `json:"decoded"`
	AttemptNumber *int    `json:"attempt_number,omitempty"`
	Method        string  `json:"method,omitempty"`
	Data          *QRData `json:"data,omitempty"`
}

// OCRField is one OCR-extracted value with its confidence.
type OCRField struct {
	Value      *string `json:"value,omitempty"`
	Confidence float64 `json:"confidence"`
}

// OCRData holds the per-field OCR output.
type OCRData struct {
	Name          *OCRField `json:"name,omitempty"`
	AadhaarNumber *OCRField `json:"aadhaar_number,omitempty"`
	DOB           *OCRField `json:"dob,omitempty"`
	Gender        *OCRField `json:"gender,omitempty"`
	Address       *OCRField `json:"address,omitempty"`
}

// Fields returns the OCR fields in display order; absent fields are nil.
func (d OCRData) Fields() []NamedOCRField {
	return []NamedOCRField{
		{Field: FieldName, OCR: d.Name},
		{Field: FieldAadhaarNumber, OCR: d.AadhaarNumber},
		{Field: FieldDOB, OCR: d.DOB},
		{Field: FieldGender, OCR: d.Gender},
		{Field: FieldAddress, OCR: d.Address},
	}
}

// OCRExtraction is the optional OCR section.
type OCRExtraction struct {
	Success bool     `json:"success"`
	Data    *OCRData `json:"data,omitempty"`
}

// MatchThreshold is the similarity score at or above which the service
// treats a compared field, or the document as a whole, as matching.
const MatchThreshold = 80.0

// FieldMatch compares one field between QR and OCR output. Similarity is a
// score from 0 to 100, unlike the 0-1 confidences elsewhere in the result.
type FieldMatch struct {
	Match      bool    `json:"match"`
	Similarity float64 `json:"similarity"`
}

// CrossValidation is the optional QR/OCR comparison section.
type CrossValidation struct {
	NameMatch    *FieldMatch `json:"name_match,omitempty"`
	AadhaarMatch *FieldMatch `json:"aadhaar_match,omitempty"`
	DOBMatch     *FieldMatch `json:"dob_match,omitempty"`
	GenderMatch  *FieldMatch `json:"gender_match,omitempty"`
	AddressMatch *FieldMatch `json:"address_match,omitempty"`
	OverallMatch float64     `json:"overall_match"` // mean similarity, 0-100
}

// Fields returns the per-field comparisons in display order; absent entries are nil.
func (c CrossValidation) Fields() []NamedMatch {
	return []NamedMatch{
		{Field: FieldName, Match: c.NameMatch},
		{Field: FieldAadhaarNumber, Match: c.AadhaarMatch},
		{Field: FieldDOB, Match: c.DOBMatch},
		{Field: FieldGender, Match: c.GenderMatch},
		{Field: FieldAddress, Match: c.AddressMatch},
	}
}

// AadhaarValidation reports structural checks on the Aadhaar number.
type AadhaarValidation struct {
	FormatValid   bool `json:"format_valid"`
	ChecksumValid bool `json:"checksum_valid"`
}

// ValidationResult is the full analysis outcome of a completed job.
type ValidationResult struct {
	OverallStatus     OverallStatus      `json:"overall_status"`
	OverallConfidence float64            `json:"overall_confidence"`
	ForgeryCheck      ForgeryCheck       `json:"forgery_check"`
	QRValidation      *QRValidation      `json:"qr_validation,omitempty"`
	OCRExtraction     *OCRExtraction     `json:"ocr_extraction,omitempty"`
	CrossValidation   *CrossValidation   `json:"cross_validation,omitempty"`
	AadhaarValidation *AadhaarValidation `json:"aadhaar_validation,omitempty"`
}

func (v *ValidationResult) HasQR() bool                { return v != nil && v.QRValidation != nil }
func (v *ValidationResult) HasOCR() bool               { return v != nil && v.OCRExtraction != nil }
func (v *ValidationResult) HasCrossValidation() bool   { return v != nil && v.CrossValidation != nil }
func (v *ValidationResult) HasAadhaarValidation() bool { return v != nil && v.AadhaarValidation != nil }

// CheckInvariants reports combinations the service should never produce.
// Violations are informational; callers log them and keep rendering.
func (v *ValidationResult) CheckInvariants() []string {
	if v == nil {
		return nil
	}
	var problems []string
	if !v.OverallStatus.Known() {
		problems = append(problems, fmt.Sprintf("unknown overall_status %q", v.OverallStatus))
	}
	if v.OverallConfidence < 0 || v.OverallConfidence > 1 {
		problems = append(problems, fmt.Sprintf("overall_confidence %.3f outside [0,1]", v.OverallConfidence))
	}
	if v.OverallStatus == OverallManualReview && v.HasQR() && v.QRValidation.Decoded {
		problems = append(problems, "MANUAL_REVIEW verdict with a decoded QR code")
	}
	if v.HasQR() && v.QRValidation.AttemptNumber != nil {
		if n := *v.QRValidation.AttemptNumber; n < 1 || n > MaxQRAttempts {
			problems = append(problems, fmt.Sprintf("qr attempt_number %d outside 1-%d", n, MaxQRAttempts))
		}
	}
	return problems
}

// MaxQRAttempts is the number of progressive QR decoding passes the service runs.
const MaxQRAttempts = 4

// Reports lists server-side URLs of generated report artifacts.
type Reports struct {
	PDFURL  string `json:"pdf_url,omitempty"`
	HTMLURL string `json:"html_url,omitempty"`
	JSONURL string `json:"json_url,omitempty"`
}

// ResultsResponse is the payload of GET /results/{job_id}.
type ResultsResponse struct {
	JobID            string            `json:"job_id"`
	Status           JobStatus         `json:"status"`
	ValidationResult *ValidationResult `json:"validation_result,omitempty"`
	Reports          *Reports          `json:"reports,omitempty"`
	Timestamp        string            `json:"timestamp"`
	ProcessingTime   *float64          `json:"processing_time,omitempty"`
}

// HasResult reports whether the payload carries an analysis.
func (r *ResultsResponse) HasResult() bool {
	return r != nil && r.ValidationResult != nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses the service's timestamp; zone-less values are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
