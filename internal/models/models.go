package models

// BackupItem is a read-only projection of one stored archive, re-derived on
// every listing call. UploadedAt is ISO-8601 UTC with millisecond precision,
// so lexicographic order is chronological order.
type BackupItem struct {
	Name       string `json:"name"`
	SizeBytes  int64  `json:"sizeBytes"`
	UploadedAt string `json:"uploadedAt"`
}

// UploadTarget is a provider-issued one-shot upload URL plus token. It is
// never cached or reused; each upload requests a fresh one.
type UploadTarget struct {
	UploadURL       string `json:"uploadUrl"`
	UploadAuthToken string `json:"uploadAuthToken"`
}

type ListResponse struct {
	Items []BackupItem `json:"items"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
