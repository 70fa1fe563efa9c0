package domain

// DateLayout is the local calendar date format used for quota resets.
const DateLayout = "2006-01-02"

// UsageQuota is an anonymous device's copy usage for one local day.
// Count resets to zero the first time a different local date is observed.
type UsageQuota struct {
	Count     int    `json:"copyCount"`
	ResetDate string `json:"lastReset"`
}

// QuotaStatus is the quota as reported to clients.
type QuotaStatus struct {
	UsageQuota
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Degraded  bool `json:"degraded,omitempty"`
}
