package transfer

import "time"

// GatewaySubmission is the request body for the gateway publish endpoint.
type GatewaySubmission struct {
	AccountToken  string   `json:"account_token"`
	DestinationID string   `json:"destination_id"`
	Platform      string   `json:"platform"`
	Text          string   `json:"text"`
	Hashtags      []string `json:"hashtags"`
	MediaURLs     []string `json:"media_urls,omitempty"`
}

type GatewayPublishResult struct {
	PlatformPostID string `json:"platform_post_id"`
	PlatformURL    string `json:"platform_url"`
}

type GatewayMetrics struct {
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Shares      int       `json:"shares"`
	Views       int       `json:"views"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

type GatewayErrorResponse struct {
	Error string `json:"error"`
}
