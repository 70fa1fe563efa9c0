package api

// Request headers and query parameters that identify visitors.
const (
	HeaderAnonymousID = "X-Anonymous-ID"
	QueryAnonymousID  = "anonymous_id"
	HeaderDoNotTrack  = "DNT"
)

// Cache-Control header values.
const (
	CacheNoStore      = "no-store"
	CacheShortPublic  = "public, max-age=60"
	CacheShortPrivate = "private, max-age=60"
)
