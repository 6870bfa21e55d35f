package types

// Message is one durable entry of a booking conversation. The SSE stream only
// nudges clients; this record is what they re-fetch.
type Message struct {
	ID      string `json:"id" dynamodbav:"id"`
	TopicID string `json:"topic_id" dynamodbav:"topic_id"`
	Sender  string `json:"sender" dynamodbav:"sender"`
	Body    string `json:"body" dynamodbav:"body"`
	SentAt  int64  `json:"sent_at" dynamodbav:"sent_at"`
}

// Listing is a bookable artist/venue entry as served by search.
type Listing struct {
	ID       string `json:"id" dynamodbav:"id"`
	Name     string `json:"name" dynamodbav:"name"`
	Kind     string `json:"kind" dynamodbav:"kind"` // "artist", "dj", "venue"
	City     string `json:"city" dynamodbav:"city"`
	Genre    string `json:"genre" dynamodbav:"genre"`
	DayRate  int    `json:"day_rate" dynamodbav:"day_rate"`
	Verified bool   `json:"verified" dynamodbav:"verified"`
}

// SearchParams are the recognized listing-search filters. Empty fields are
// wildcards. Params() yields the canonical mapping used for cache keys.
type SearchParams struct {
	City     string `json:"city"`
	Genre    string `json:"genre"`
	Kind     string `json:"kind"`
	MaxRate  int    `json:"max_rate"`
	Verified bool   `json:"verified"`
}

func (p SearchParams) Params() map[string]any {
	m := map[string]any{}
	if p.City != "" {
		m["city"] = p.City
	}
	if p.Genre != "" {
		m["genre"] = p.Genre
	}
	if p.Kind != "" {
		m["kind"] = p.Kind
	}
	if p.MaxRate > 0 {
		m["max_rate"] = p.MaxRate
	}
	if p.Verified {
		m["verified"] = true
	}
	return m
}

// Match reports whether a listing satisfies the filters.
func (p SearchParams) Match(l Listing) bool {
	if p.City != "" && p.City != l.City {
		return false
	}
	if p.Genre != "" && p.Genre != l.Genre {
		return false
	}
	if p.Kind != "" && p.Kind != l.Kind {
		return false
	}
	if p.MaxRate > 0 && l.DayRate > p.MaxRate {
		return false
	}
	if p.Verified && !l.Verified {
		return false
	}
	return true
}
