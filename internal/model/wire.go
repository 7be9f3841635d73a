package model

// Message is the generic {"message": ...} response body.
type Message struct {
	Message string `json:"message"`
}

// ErrorResponse is the {"error": ...} body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ScanResult is returned after a scan is counted.
type ScanResult struct {
	Name        string   `json:"name"`
	Scans       int64    `json:"scans"`
	UserScanned []string `json:"user_scanned"`
}

// SessionResult is returned after a session is reported.
type SessionResult struct {
	SessionDuration    float64 `json:"session_duration"`
	AverageSessionTime float64 `json:"average_session_time"`
}

// StatsResult is the public view of the backend counters.
type StatsResult struct {
	GlobalStats
	Graffiti []Graffiti `json:"graffiti"`
}
