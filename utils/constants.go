package utils

// ContextKey is the type for request metadata keys stored in a context
type ContextKey string

// Context keys used to carry request metadata into business flows
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Short code and scan constants
const (
	// ShortURLLength is the length of generated short codes
	ShortURLLength = 8

	// UnknownLocation is the sentinel stored when geolocation cannot resolve
	// a city or country for a scan
	UnknownLocation = "Desconhecido"

	// FallbackIPAddress is recorded when the transport layer cannot supply a
	// client address
	FallbackIPAddress = "0.0.0.0"

	// StatsWindowDays is the size of the daily scan series window
	StatsWindowDays = 7
)
