package present

import (
	"fmt"
	"strings"
)

// View names one result view.
type View string

const (
	ViewSummary    View = "summary"
	ViewForgery    View = "forgery"
	ViewQR         View = "qr"
	ViewOCR        View = "ocr"
	ViewValidation View = "validation"
)

// AllViews returns every view in display order.
func AllViews() []View {
	return []View{ViewSummary, ViewForgery, ViewQR, ViewOCR, ViewValidation}
}

// ParseViews parses a comma-separated view list. "all" or an empty string
// selects every view. Duplicates are dropped; order follows the input.
func ParseViews(raw string) ([]View, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return AllViews(), nil
	}
	seen := make(map[View]struct{})
	var views []View
	for _, part := range strings.Split(raw, ",") {
		name := View(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if name == "all" {
			return AllViews(), nil
		}
		if !name.Known() {
			return nil, fmt.Errorf("unknown view %q (use summary, forgery, qr, ocr, validation or all)", part)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		views = append(views, name)
	}
	if len(views) == 0 {
		return AllViews(), nil
	}
	return views, nil
}

// Known reports whether v is a defined view.
func (v View) Known() bool {
	switch v {
	case ViewSummary, ViewForgery, ViewQR, ViewOCR, ViewValidation:
		return true
	}
	return false
}

// Title is the heading shown above the view.
func (v View) Title() string {
	switch v {
	case ViewSummary:
		return "Summary"
	case ViewForgery:
		return "Forgery Detection"
	case ViewQR:
		return "QR Code"
	case ViewOCR:
		return "OCR Extraction"
	case ViewValidation:
		return "Cross-Validation"
	}
	return string(v)
}
