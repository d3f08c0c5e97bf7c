package present

import (
	"fmt"
	"math"
	"strings"

	"docverify/internal/api"
)

// Placeholder marks a missing field value.
const Placeholder = "—"

// Messages shown when a section is missing or inconclusive.
const (
	MsgNoVisualAnalysis = "Visual analysis not available for this detection."
	MsgQRNotDecoded     = "QR code could not be decoded. This case may be routed to manual review."
	MsgOCRUnavailable   = "OCR extraction not available for this document."
	MsgCrossUnavailable = "Cross-validation not available for this document."
	MsgNoResults        = "No results found"
)

// Rendered is the output of one view.
type Rendered struct {
	View     View     `json:"view" yaml:"view"`
	Title    string   `json:"title" yaml:"title"`
	Kind     Kind     `json:"-" yaml:"-"`
	Lines    []string `json:"lines" yaml:"lines"`
	Table    *Table   `json:"table,omitempty" yaml:"table,omitempty"`
	Notes    []string `json:"notes,omitempty" yaml:"notes,omitempty"`
	Degraded bool     `json:"degraded" yaml:"degraded"`
}

// Render produces view v for resp. A nil or result-less resp yields the
// not-found rendering.
func Render(v View, resp *api.ResultsResponse) Rendered {
	if resp == nil || !resp.HasResult() {
		out := NotFound()
		out.View = v
		return out
	}
	res := resp.ValidationResult
	switch v {
	case ViewSummary:
		return renderSummary(resp)
	case ViewForgery:
		return renderForgery(res)
	case ViewQR:
		return renderQR(res)
	case ViewOCR:
		return renderOCR(res)
	case ViewValidation:
		return renderValidation(res)
	}
	return Rendered{View: v, Title: string(v), Lines: []string{fmt.Sprintf("unknown view %q", v)}, Degraded: true}
}

// RenderAll renders each requested view in order.
func RenderAll(resp *api.ResultsResponse, views []View) []Rendered {
	out := make([]Rendered, 0, len(views))
	for _, v := range views {
		out = append(out, Render(v, resp))
	}
	return out
}

// NotFound is the rendering for a terminal job without an analysis.
func NotFound() Rendered {
	return Rendered{
		Title: MsgNoResults,
		Kind:  KindWarn,
		Lines: []string{
			MsgNoResults,
			"Submit the document again with `docverify submit <file>`.",
		},
		Degraded: true,
	}
}

// Banner returns the headline and subline for the overall verdict.
func Banner(res *api.ValidationResult) (Kind, string, string) {
	if res == nil {
		return KindWarn, MsgNoResults, ""
	}
	confidence := fmt.Sprintf("%s Overall Confidence", Percent0(res.OverallConfidence))
	switch res.OverallStatus {
	case api.OverallValid:
		return KindOK, "Aadhaar Verified Successfully", confidence
	case api.OverallSuspicious:
		return KindWarn, "Verification Completed with Warnings", confidence
	case api.OverallInvalid:
		if res.ForgeryCheck.IsForged {
			return KindError, "Aadhaar Validation Failed", "Forgery detected"
		}
		return KindError, "Aadhaar Validation Failed", "Validation failed"
	case api.OverallManualReview:
		return KindInfo, "Manual Review Required", "QR code could not be decoded"
	}
	return KindWarn, fmt.Sprintf("Unrecognized verdict %q", res.OverallStatus), confidence
}

// StatusKind maps a verdict to its badge colour.
func StatusKind(status api.OverallStatus) Kind {
	switch status {
	case api.OverallValid:
		return KindOK
	case api.OverallSuspicious:
		return KindWarn
	case api.OverallInvalid:
		return KindError
	default:
		return KindInfo
	}
}

func renderSummary(resp *api.ResultsResponse) Rendered {
	res := resp.ValidationResult
	kind, headline, subline := Banner(res)
	lines := []string{headline}
	if subline != "" {
		lines = append(lines, subline)
	}
	lines = append(lines,
		fmt.Sprintf("Overall Status: %s", res.OverallStatus),
		fmt.Sprintf("Confidence Score: %s", Percent1(res.OverallConfidence)),
	)
	if resp.ProcessingTime != nil {
		lines = append(lines, fmt.Sprintf("Processing Time: %.2f seconds", *resp.ProcessingTime))
	}
	if ts, err := api.ParseTimestamp(resp.Timestamp); err == nil {
		lines = append(lines, fmt.Sprintf("Analyzed At: %s", ts.Format("2006-01-02 15:04:05 MST")))
	}

	rows := [][]string{{"Forgery", forgeryVerdict(res.ForgeryCheck)}}
	rows = append(rows, []string{"QR Code", qrVerdict(res.QRValidation)})
	rows = append(rows, []string{"OCR", ocrVerdict(res.OCRExtraction)})
	rows = append(rows, []string{"Cross-Validation", crossVerdict(res.CrossValidation)})

	return Rendered{
		View:  ViewSummary,
		Title: ViewSummary.Title(),
		Kind:  kind,
		Lines: lines,
		Table: &Table{Header: []string{"Check", "Result"}, Rows: rows},
	}
}

func renderForgery(res *api.ValidationResult) Rendered {
	fc := res.ForgeryCheck
	kind := KindOK
	if fc.IsForged {
		kind = KindError
	}
	out := Rendered{
		View:  ViewForgery,
		Title: ViewForgery.Title(),
		Kind:  kind,
		Lines: []string{
			fmt.Sprintf("Status: %s", forgeryLabel(fc.IsForged)),
			fmt.Sprintf("Confidence: %s", Percent1(fc.Confidence)),
		},
	}
	if fc.ForgedAreaPercentage != nil {
		out.Lines = append(out.Lines, fmt.Sprintf("Forged Area: %.1f%%", *fc.ForgedAreaPercentage))
	}
	if fc.HasAnnotatedImage() {
		out.Lines = append(out.Lines, fmt.Sprintf("Annotated Image: %s", fc.AnnotatedImageURL))
		out.Notes = append(out.Notes, "Red boxes indicate detected manipulated regions.")
		out.Notes = append(out.Notes, "Save it with `docverify download <job-id> annotated`.")
	} else {
		out.Notes = append(out.Notes, MsgNoVisualAnalysis)
		out.Degraded = true
	}
	if strings.TrimSpace(fc.SplicingMapURL) != "" {
		out.Lines = append(out.Lines, fmt.Sprintf("Splicing Map: %s", fc.SplicingMapURL))
		out.Notes = append(out.Notes, "Save it with `docverify download <job-id> splicing`.")
	}
	return out
}

func renderQR(res *api.ValidationResult) Rendered {
	out := Rendered{View: ViewQR, Title: ViewQR.Title()}
	qr := res.QRValidation
	if qr == nil {
		out.Kind = KindWarn
		out.Lines = []string{"Status: Not Available"}
		out.Notes = []string{MsgQRNotDecoded}
		out.Degraded = true
		return out
	}
	if !qr.Decoded {
		out.Kind = KindError
		out.Lines = []string{"Status: Not Decoded"}
		out.Notes = []string{MsgQRNotDecoded}
		return out
	}

	out.Kind = KindOK
	out.Lines = []string{"Status: Decoded"}
	if qr.AttemptNumber != nil {
		out.Lines = append(out.Lines, fmt.Sprintf("Successful on attempt %d/%d", *qr.AttemptNumber, api.MaxQRAttempts))
	}
	if qr.Method != "" {
		out.Lines = append(out.Lines, fmt.Sprintf("Method: %s", qr.Method))
	}
	data := api.QRData{}
	if qr.Data != nil {
		data = *qr.Data
	}
	rows := make([][]string, 0, 5)
	for _, f := range data.Fields() {
		rows = append(rows, []string{f.Field.Label(), orPlaceholder(f.Value)})
	}
	out.Table = &Table{Header: []string{"Field", "Value"}, Rows: rows}
	return out
}

func renderOCR(res *api.ValidationResult) Rendered {
	out := Rendered{View: ViewOCR, Title: ViewOCR.Title()}
	ocr := res.OCRExtraction
	if ocr == nil {
		out.Kind = KindWarn
		out.Lines = []string{"Status: Not Available"}
		out.Notes = []string{MsgOCRUnavailable}
		out.Degraded = true
		return out
	}
	if ocr.Success {
		out.Kind = KindOK
		out.Lines = []string{"Status: Extracted"}
	} else {
		out.Kind = KindError
		out.Lines = []string{"Status: Extraction Failed"}
	}
	data := api.OCRData{}
	if ocr.Data != nil {
		data = *ocr.Data
	}
	rows := make([][]string, 0, 5)
	for _, f := range data.Fields() {
		value, confidence := Placeholder, Placeholder
		if f.OCR != nil {
			if f.OCR.Value != nil {
				value = orPlaceholder(*f.OCR.Value)
			}
			confidence = Percent1(f.OCR.Confidence)
		}
		rows = append(rows, []string{f.Field.Label(), value, confidence})
	}
	out.Table = &Table{
		Header: []string{"Field", "Value", "Confidence"},
		Rows:   rows,
		Align:  []Alignment{AlignLeft, AlignLeft, AlignRight},
	}
	return out
}

func renderValidation(res *api.ValidationResult) Rendered {
	out := Rendered{View: ViewValidation, Title: ViewValidation.Title()}
	cv := res.CrossValidation
	if cv == nil {
		out.Kind = KindWarn
		out.Lines = []string{"Status: Not Available"}
		out.Notes = []string{MsgCrossUnavailable}
		out.Degraded = true
	} else {
		out.Kind = KindOK
		if cv.OverallMatch < api.MatchThreshold {
			out.Kind = KindWarn
		}
		out.Lines = []string{fmt.Sprintf("Overall Match: %s", Score1(cv.OverallMatch))}
		rows := make([][]string, 0, 5)
		for _, f := range cv.Fields() {
			match, similarity := Placeholder, Placeholder
			if f.Match != nil {
				match = yesNo(f.Match.Match, "Match", "Mismatch")
				similarity = Score1(f.Match.Similarity)
			}
			rows = append(rows, []string{f.Field.Label(), match, similarity})
		}
		out.Table = &Table{
			Header: []string{"Field", "Result", "Similarity"},
			Rows:   rows,
			Align:  []Alignment{AlignLeft, AlignLeft, AlignRight},
		}
	}

	if av := res.AadhaarValidation; av != nil {
		out.Lines = append(out.Lines,
			fmt.Sprintf("Aadhaar Format: %s", yesNo(av.FormatValid, "Valid", "Invalid")),
			fmt.Sprintf("Aadhaar Checksum: %s", yesNo(av.ChecksumValid, "Valid", "Invalid")),
		)
		if !av.FormatValid || !av.ChecksumValid {
			out.Kind = KindError
		}
	} else if cv != nil {
		out.Notes = append(out.Notes, "Aadhaar number checks not available.")
	}
	return out
}

func forgeryLabel(forged bool) string {
	return yesNo(forged, "Forged", "Genuine")
}

func forgeryVerdict(fc api.ForgeryCheck) string {
	return fmt.Sprintf("%s (%s)", forgeryLabel(fc.IsForged), Percent1(fc.Confidence))
}

func qrVerdict(qr *api.QRValidation) string {
	switch {
	case qr == nil:
		return "Not Available"
	case qr.Decoded:
		return "Decoded"
	default:
		return "Not Decoded"
	}
}

func ocrVerdict(ocr *api.OCRExtraction) string {
	switch {
	case ocr == nil:
		return "Not Available"
	case ocr.Success:
		return "Extracted"
	default:
		return "Extraction Failed"
	}
}

func crossVerdict(cv *api.CrossValidation) string {
	if cv == nil {
		return "Not Available"
	}
	return fmt.Sprintf("%s match", Score1(cv.OverallMatch))
}

// Percent0 formats a 0-1 ratio as a whole percentage.
func Percent0(ratio float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(ratio*100))
}

// Score1 formats a score that is already on a 0-100 scale.
func Score1(score float64) string {
	return fmt.Sprintf("%.1f%%", score)
}

// Percent1 formats a 0-1 ratio with one decimal place.
func Percent1(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return Placeholder
	}
	return value
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
