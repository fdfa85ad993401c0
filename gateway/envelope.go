package gateway

// Envelope is the response body of every whisky endpoint.
type Envelope struct {
	Success       bool   `json:"success"`
	Data          any    `json:"data,omitempty"`
	Total         *int64 `json:"total,omitempty"`
	Page          int    `json:"page,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	TotalPages    *int64 `json:"totalPages,omitempty"`
	Error         string `json:"error,omitempty"`
	UsingFallback bool   `json:"usingFallback,omitempty"`
}

func failure(err error) *Envelope {
	return &Envelope{Success: false, Error: err.Error()}
}

func totalPages(total int64, pageSize int) int64 {
	if pageSize <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}
