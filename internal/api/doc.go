// Package api defines the wire-format types exchanged with the document
// verification service.
//
// # Key Types
//
// StatusResponse: one poll of a job's lifecycle (status, current stage token,
// progress). Each poll replaces the previous record wholesale.
//
// ResultsResponse / ValidationResult: the final analysis. Only forgery_check is
// mandatory; QR, OCR, cross-validation and Aadhaar number checks are optional
// sections modelled as pointers with Has* accessors.
//
// ReportKind: downloadable artifacts and their server file names.
//
// HealthResponse, ManualReviewResponse, ManualReviewDecision: auxiliary
// endpoints for service health and the manual review queue.
//
// # Design Notes
//
// JSON tags are snake_case to match the service. Timestamps are kept as the
// raw strings the service emits because it does not always include a zone
// offset; ParseTimestamp accepts the layouts seen in practice.
package api
