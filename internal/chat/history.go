package chat

import "github.com/officeflow/deskchat/internal/transport"

// expandHistory turns the server's newest-first turn records into the
// oldest-first message sequence the log renders from. Each record expands to
// a (user, assistant) pair and pairs are reversed as units, so role order
// inside a turn is preserved.
func expandHistory(records []transport.TurnRecord) []Message {
	out := make([]Message, 0, len(records)*2)
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		out = append(out, Message{
			Role:    RoleUser,
			Content: rec.Message,
		})
		out = append(out, Message{
			Role:    RoleAssistant,
			Content: rec.Response,
			Meta:    newMetadata(rec.Score, rec.Model, rec.Confidence, rec.ProcessingTime),
		})
	}
	return out
}
