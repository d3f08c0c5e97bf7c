package api

// Field identifies one demographic field shared by QR, OCR and cross-validation.
type Field string

const (
	FieldName          Field = "name"
	FieldAadhaarNumber Field = "aadhaar_number"
	FieldDOB           Field = "dob"
	FieldGender        Field = "gender"
	FieldAddress       Field = "address"
)

// Label returns the display label for the field.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldAadhaarNumber:
		return "Aadhaar Number"
	case FieldDOB:
		return "Date of Birth"
	case FieldGender:
		return "Gender"
	case FieldAddress:
		return "Address"
	default:
		return string(f)
	}
}

// NamedValue pairs a field with a decoded string value.
type NamedValue struct {
	Field Field
	Value string
}

// NamedOCRField pairs a field with its OCR output; OCR is nil when absent.
type NamedOCRField struct {
	Field Field
	OCR   *OCRField
}

// NamedMatch pairs a field with its comparison; Match is nil when absent.
type NamedMatch struct {
	Field Field
	Match *FieldMatch
}
