package chat

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Confidence is the assistant's self-reported answer quality, carried
// verbatim from the backend. "ready" is emitted while the remote agent runs
// without a configured key; it is displayed, never interpreted.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
	ConfidenceReady  Confidence = "ready"
)

// Metadata describes an assistant reply. Nil pointers and empty strings mean
// "not applicable", never zero.
type Metadata struct {
	Score          *float64
	Model          string
	Confidence     Confidence
	ProcessingTime *float64
}

// Message is one entry in the conversation log. Ordering is append-only and
// significant; uniqueness is positional, there is no per-message key.
type Message struct {
	Role    Role
	Content string
	Meta    *Metadata // assistant messages only
}

// FallbackReply is appended in place of an assistant reply when the turn
// fails. The exact wording is part of the UI contract.
const FallbackReply = "Sorry, I encountered an error. Please try again."

func fallbackMessage() Message {
	return Message{
		Role:    RoleAssistant,
		Content: FallbackReply,
		Meta:    &Metadata{Confidence: ConfidenceNone},
	}
}

// newMetadata returns nil when the server attached no metadata at all, so a
// bare reply stays a bare message.
func newMetadata(score *float64, model, confidence string, processingTime *float64) *Metadata {
	if score == nil && model == "" && confidence == "" && processingTime == nil {
		return nil
	}
	return &Metadata{
		Score:          score,
		Model:          model,
		Confidence:     Confidence(confidence),
		ProcessingTime: processingTime,
	}
}
