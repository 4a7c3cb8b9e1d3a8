package domain

// TenantDomainResult is the outcome of a domain registration attempt.
// It is returned to the caller and never persisted.
type TenantDomainResult struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Session carries the opaque cookie values of an inbound request.
type Session struct {
	Token       string
	TenantID    string
	WorkspaceID string
}

func (s Session) Valid() bool {
	return s.Token != "" && s.TenantID != ""
}
