package hostrpc

// Per-command request and response bodies. All bodies are JSON on the
// wire regardless of transport.

// RegisterConnectionRequest identifies the integration to the host.
type RegisterConnectionRequest struct {
	CompanyName     string `json:"company_name"`
	ApplicationName string `json:"application_name"`
}

// RegisterConnectionResponse carries the session token the host issues
// at registration. The token must accompany every subsequent request.
type RegisterConnectionResponse struct {
	SessionID string `json:"session_id"`
}

// GetSessionNameResponse is the body of a get-session-name reply.
type GetSessionNameResponse struct {
	Name string `json:"session_name"`
}

// GetSampleRateResponse is the body of a get-session-sample-rate reply.
type GetSampleRateResponse struct {
	SampleRate int `json:"sample_rate"`
}

// GetTimecodeRateResponse is the body of a get-session-timecode-rate reply.
type GetTimecodeRateResponse struct {
	FPS       float64 `json:"fps"`
	DropFrame bool    `json:"drop_frame"`
}

// Track is one entry of a get-track-list reply.
type Track struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// GetTrackListResponse is the body of a get-track-list reply.
type GetTrackListResponse struct {
	Tracks []Track `json:"track_list"`
}

// GetMemoryLocationsRequest optionally narrows the fetched locations.
type GetMemoryLocationsRequest struct {
	Filter string `json:"filter,omitempty"`
}

// MemoryLocation is one entry of a get-memory-locations reply.
type MemoryLocation struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	StartTime  string `json:"start_time"`
	ColorIndex int    `json:"color_index"`
	Comments   string `json:"comments,omitempty"`
}

// GetMemoryLocationsResponse is the body of a get-memory-locations reply.
type GetMemoryLocationsResponse struct {
	Locations []MemoryLocation `json:"memory_locations"`
}

// CreateMemoryLocationRequest creates one marker. The host assigns the
// location number itself.
type CreateMemoryLocationRequest struct {
	Name       string `json:"name"`
	StartTime  string `json:"start_time"`
	Comments   string `json:"comments,omitempty"`
	ColorIndex int    `json:"color_index"`
}

// CreateMemoryLocationResponse is the body of a create-memory-location reply.
type CreateMemoryLocationResponse struct {
	Number int `json:"number"`
}
