package model

// KeywordState is the resumable position for one expanded keyword.
type KeywordState struct {
	Index      int    `json:"index"`
	PageToken  string `json:"page_token,omitempty"`
	Deferrals  int    `json:"deferrals,omitempty"` // times pushed back by transient/rate-limit failures
	Dispatched bool   `json:"dispatched,omitempty"`
}

// Cursor describes the work remaining for a job. It is persisted as JSONB in
// the same atomic update that advances the counters, so a re-delivered
// invocation never observes counters ahead of the cursor.
type Cursor struct {
	Pending []KeywordState `json:"pending"`
}

// NewCursor seeds a cursor covering every expanded keyword in order.
func NewCursor(keywordCount int) Cursor {
	pending := make([]KeywordState, 0, keywordCount)
	for i := 0; i < keywordCount; i++ {
		pending = append(pending, KeywordState{Index: i})
	}
	return Cursor{Pending: pending}
}

func (c Cursor) Exhausted() bool { return len(c.Pending) == 0 }

// Take returns up to n states from the front and the remaining tail.
func (c Cursor) Take(n int) (batch []KeywordState, rest []KeywordState) {
	if n >= len(c.Pending) {
		return c.Pending, nil
	}
	return c.Pending[:n], c.Pending[n:]
}
