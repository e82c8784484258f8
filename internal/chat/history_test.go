package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/officeflow/deskchat/internal/transport"
)

func fptr(v float64) *float64 { return &v }

func TestExpandHistory_ReversesAtPairGranularity(t *testing.T) {
	// Server order is newest turn first.
	records := []transport.TurnRecord{
		{ID: "2", Message: "second question", Response: "second answer"},
		{ID: "1", Message: "first question", Response: "first answer"},
	}

	msgs := expandHistory(records)

	require.Equal(t, []Message{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
		{Role: RoleAssistant, Content: "second answer"},
	}, msgs)
}

func TestExpandHistory_CarriesMetadata(t *testing.T) {
	records := []transport.TurnRecord{
		{
			ID:             "1",
			Message:        "how many open issues?",
			Response:       "three",
			Score:          fptr(9.2),
			Model:          "gpt-4o-mini",
			Confidence:     "high",
			ProcessingTime: fptr(1.7),
		},
	}

	msgs := expandHistory(records)
	require.Len(t, msgs, 2)
	require.Nil(t, msgs[0].Meta, "user half of a turn carries no metadata")

	meta := msgs[1].Meta
	require.NotNil(t, meta)
	require.Equal(t, 9.2, *meta.Score)
	require.Equal(t, "gpt-4o-mini", meta.Model)
	require.Equal(t, ConfidenceHigh, meta.Confidence)
	require.Equal(t, 1.7, *meta.ProcessingTime)
}

func TestExpandHistory_BareRecordsStayBare(t *testing.T) {
	msgs := expandHistory([]transport.TurnRecord{{ID: "1", Message: "ping", Response: "pong"}})
	require.Len(t, msgs, 2)
	require.Nil(t, msgs[1].Meta)
}

func TestExpandHistory_Empty(t *testing.T) {
	require.Empty(t, expandHistory(nil))
}
