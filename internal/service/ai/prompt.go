package ai

import (
	"fmt"
	"strings"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
	"github.com/eshu30/AI-Stockbot/internal/model/market"
)

// SystemPrompt is the standing instruction sent with every generation
// call. It must stay the first message of every conversation.
const SystemPrompt = `You are StockBot AI, a helpful, concise, and expert financial assistant.
Your goal is to provide analysis and answer user questions about the stock market and specific companies.
You have access to a Google Search tool for current, real-time grounding. Use it for current price, news, and recent performance whenever needed.
If specific stock data is provided in the CONTEXT section of the user's prompt (from the live quote lookup), you MUST also use that data for your analysis and comparisons.
Keep your answers professional, informative, and focused on the user's financial inquiry.`

// TopPicksPrompt asks for the daily movers list shown in the sidebar.
const TopPicksPrompt = "What are 5 notable top-performing stocks today? Provide the ticker, the current price or change, and a very short, one-sentence reason based on market news. Format the output as a clean markdown list."

// summaryLimit caps how much of the business summary rides along in the
// injected context.
const summaryLimit = 500

// InjectContext returns the outbound message sequence for one turn.
// Without a pinned snapshot it is a plain copy of the conversation;
// otherwise a synthetic user message carrying the stock data is
// inserted immediately before the final message, so the model sees the
// context right next to the query it belongs to. The input slice is
// never modified.
func InjectContext(conversation []chat.Message, snap *market.Snapshot) []chat.Message {
	if snap == nil {
		return append([]chat.Message(nil), conversation...)
	}
	if len(conversation) == 0 {
		return []chat.Message{contextMessage(snap)}
	}

	out := make([]chat.Message, 0, len(conversation)+1)
	out = append(out, conversation[:len(conversation)-1]...)
	out = append(out, contextMessage(snap))
	out = append(out, conversation[len(conversation)-1])
	return out
}

func contextMessage(snap *market.Snapshot) chat.Message {
	summary := []rune(snap.BusinessSummary)
	if len(summary) > summaryLimit {
		summary = summary[:summaryLimit]
	}
	partial := strings.ReplaceAll(string(summary), "\n", " ")

	text := fmt.Sprintf(`CONTEXT: The user's query relates to the currently active stock: %s (%s).
Use the following real-time data for your analysis:
- Current Price: $%s
- 52-Week Range: $%s - $%s
- Sector: %s
- Business Summary (Partial): %s...`,
		snap.Symbol, snap.DisplayName,
		snap.CurrentPrice,
		snap.FiftyTwoWeekLow, snap.FiftyTwoWeekHigh,
		snap.Sector,
		partial,
	)

	return chat.Message{Role: chat.RoleUser, Content: text}
}
