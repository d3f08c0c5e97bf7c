package testsupport

import "docverify/internal/api"

func strPtr(s string) *string { return &s }
func intPtr(n int) *int { return &n }
func floatPtr(f float64) *float64 { return &f }

// FullResult returns a completed VALID result with every optional section present.
func FullResult(jobID string) api.ResultsResponse {
	return api.ResultsResponse{
		JobID:  jobID,
		Status: api.StatusCompleted,
		ValidationResult: &api.ValidationResult{
			OverallStatus:     api.OverallValid,
			OverallConfidence: 0.94,
			ForgeryCheck: api.ForgeryCheck{
				IsForged:             false,
				Confidence:           0.97,
				AnnotatedImageURL:    "/api/v1/download/" + jobID + "/annotated_forgery.jpg",
				ForgedAreaPercentage: floatPtr(0.4),
			},
			QRValidation: &api.QRValidation{
				Decoded:       true,
				AttemptNumber: intPtr(2),
				Method:        "adaptive_threshold",
				Data: &api.QRData{
					Name:          "Asha Verma",
					AadhaarNumber: "XXXX XXXX 4821",
					DOB:           "1990-04-12",
					Gender:        "F",
				},
			},
			OCRExtraction: &api.OCRExtraction{
				Success: true,
				Data: &api.OCRData{
					Name:          &api.OCRField{Value: strPtr("Asha Verma"), Confidence: 0.93},
					AadhaarNumber: &api.OCRField{Value: strPtr("XXXX XXXX 4821"), Confidence: 0.88},
					DOB:           &api.OCRField{Value: strPtr("12/04/1990"), Confidence: 0.81},
					Gender:        &api.OCRField{Confidence: 0.2},
				},
			},
			CrossValidation: &api.CrossValidation{
				NameMatch:    &api.FieldMatch{Match: true, Similarity: 100},
				AadhaarMatch: &api.FieldMatch{Match: true, Similarity: 100},
				DOBMatch:     &api.FieldMatch{Match: true, Similarity: 85},
				OverallMatch: 95,
			},
			AadhaarValidation: &api.AadhaarValidation{FormatValid: true, ChecksumValid: true},
		},
		Reports: &api.Reports{
			PDFURL:  "/api/v1/download/" + jobID + "/report.pdf",
			HTMLURL: "/api/v1/download/" + jobID + "/report.html",
			JSONURL: "/api/v1/download/" + jobID + "/data.json",
		},
		Timestamp:      "2024-05-01T10:00:00.000000",
		ProcessingTime: floatPtr(41.7),
	}
}

// ForgeryOnlyResult returns a completed result carrying only the mandatory
// forgery section, with no annotated image.
func ForgeryOnlyResult(jobID string, status api.OverallStatus) api.ResultsResponse {
	return api.ResultsResponse{
		JobID:  jobID,
		Status: api.StatusCompleted,
		ValidationResult: &api.ValidationResult{
			OverallStatus:     status,
			OverallConfidence: 0.55,
			ForgeryCheck:      api.ForgeryCheck{IsForged: status == api.OverallInvalid, Confidence: 0.81},
		},
		Timestamp: "2024-05-01T10:00:00.000000",
	}
}

// Processing returns a non-terminal status at the given stage token.
func Processing(jobID, stage string, percent int) api.StatusResponse {
	return api.StatusResponse{
		JobID:              jobID,
		Status:             api.StatusProcessing,
		CurrentStage:       stage,
		ProgressPercentage: percent,
	}
}

// Terminal returns a completed or failed status.
func Terminal(jobID string, status api.JobStatus) api.StatusResponse {
	return api.StatusResponse{
		JobID:              jobID,
		Status:             status,
		CurrentStage:       "validation",
		ProgressPercentage: 100,
	}
}
