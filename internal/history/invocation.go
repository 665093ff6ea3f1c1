package history

import "time"

// Invocation is one recorded tool call against the hub.
type Invocation struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Entity     string    `json:"entity"`
	Domain     string    `json:"domain"`
	Service    string    `json:"service"`
	StatusCode int       `json:"status_code"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}
