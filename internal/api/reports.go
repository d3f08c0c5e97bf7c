package api

import (
	"fmt"
	"strings"
)

// ReportKind names a downloadable artifact.
type ReportKind string

const (
	ReportPDF       ReportKind = "pdf"
	ReportHTML      ReportKind = "html"
	ReportJSON      ReportKind = "json"
	ReportAnnotated ReportKind = "annotated"
	ReportSplicing  ReportKind = "splicing"
)

// DefaultReportKinds are the report documents fetched by a bulk download.
var DefaultReportKinds = []ReportKind{ReportPDF, ReportHTML, ReportJSON}

// AllReportKinds lists every artifact the service can serve.
var AllReportKinds = []ReportKind{ReportPDF, ReportHTML, ReportJSON, ReportAnnotated, ReportSplicing}

// FileType returns the {file_type} path segment of the download endpoint.
func (k ReportKind) FileType() string {
	switch k {
	case ReportPDF:
		return "report.pdf"
	case ReportHTML:
		return "report.html"
	case ReportJSON:
		return "data.json"
	case ReportAnnotated:
		return "annotated_forgery.jpg"
	case ReportSplicing:
		return "splicing_map.png"
	default:
		return ""
	}
}

// ParseReportKind accepts a kind name or its server file name.
func ParseReportKind(raw string) (ReportKind, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, kind := range AllReportKinds {
		if value == string(kind) || value == kind.FileType() {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown report kind %q (use pdf, html, json, annotated or splicing)", raw)
}
