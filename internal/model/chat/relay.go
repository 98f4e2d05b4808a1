package chat

// Source is one citation attached to an answer.
type Source struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Blurb string `json:"blurb"`
}

// Request is the inbound chat payload.
type Request struct {
	Message        string `json:"message"`
	PersonaID      int    `json:"persona_id"`
	ConversationID *int   `json:"conversation_id,omitempty"`
}

// Response is the flat fail-soft envelope returned for every chat call.
// On failure Message carries user-facing fallback text and Error the detail.
// Sources is never nil.
type Response struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	Sources        []Source `json:"sources"`
	ConversationID *int     `json:"conversation_id,omitempty"`
	Error          string   `json:"error,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// SearchRequest is the inbound knowledge-base search payload.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// DefaultSearchLimit applies when SearchRequest.Limit is zero.
const DefaultSearchLimit = 5

// SearchResponse mirrors Response for search calls. Results is always non-nil.
type SearchResponse struct {
	Success bool             `json:"success"`
	Results []map[string]any `json:"results"`
	Error   string           `json:"error,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}
