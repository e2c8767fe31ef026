package model

// FieldStatus is the validation status of a supplied field value.
type FieldStatus string

const (
	FieldValid    FieldStatus = "valid"
	FieldRejected FieldStatus = "rejected"
	FieldPending  FieldStatus = "pending"
)

// FieldValue is the outcome of one extraction/validation attempt for a
// field. Later attempts supersede earlier ones; superseded values stay in
// the session's audit trail.
type FieldValue struct {
	Field   string      `json:"field"`
	Raw     string      `json:"raw"`
	Value   string      `json:"value,omitempty"`
	Status  FieldStatus `json:"status"`
	Reason  string      `json:"reason,omitempty"`
	TurnSeq int         `json:"turn_seq"`
}

// IsValid reports whether the value passed validation.
func (v FieldValue) IsValid() bool {
	return v.Status == FieldValid
}
