package session

// dropIncompleteTurns removes user messages whose turn was cancelled: a user
// message is kept only when the immediately following message is an
// assistant reply, or when it is the last message overall (the trailing-turn
// pass decides its fate). Assistant messages always survive.
func dropIncompleteTurns(messages []Message) []Message {
	if len(messages) < 2 {
		return messages
	}

	filtered := make([]Message, 0, len(messages))
	for i, msg := range messages {
		if msg.Role != "user" {
			filtered = append(filtered, msg)
			continue
		}
		if i+1 < len(messages) && messages[i+1].Role == "assistant" {
			filtered = append(filtered, msg)
		} else if i == len(messages)-1 {
			filtered = append(filtered, msg)
		}
		// otherwise: cancelled turn, dropped
	}
	return filtered
}

// dropTrailingTurn truncates the sequence strictly before the last
// user-role message, discarding the conversation's current turn. The cut is
// unconditional: a transcript ending user-then-assistant still loses that
// final completed exchange.
func dropTrailingTurn(messages []Message) []Message {
	if len(messages) < 2 {
		return messages
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[:i]
		}
	}
	return messages
}
