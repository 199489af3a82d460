package api

import "time"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// RecordResponse is the wire form of a media record.
type RecordResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	MediaKind string    `json:"media_kind"`
	MediaRef  string    `json:"media_ref,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordUpdateRequest is a partial update. Nil fields are left unchanged.
type RecordUpdateRequest struct {
	Title           *string `json:"title,omitempty"`
	Caption         *string `json:"caption,omitempty"`
	ExpectedVersion int64   `json:"expected_version"`
}

// BlobGCResponse reports one orphan blob sweep.
type BlobGCResponse struct {
	CandidateCount int  `json:"candidate_count"`
	DeletedCount   int  `json:"deleted_count"`
	FailedCount    int  `json:"failed_count"`
	DryRun         bool `json:"dry_run"`
}
