package nutrition

import (
	"context"
	"strings"

	"github.com/apex/log"

	"github.com/matiasleandrokruk/nutrisense/internal/infra/llm"
)

// CannedReply is sent when the conversational model is unavailable.
const CannedReply = "I'm sorry, I'm unable to answer right now. " +
	"In the meantime, aim for a balanced plate: half vegetables and fruit, a quarter lean protein, " +
	"a quarter whole grains, and plenty of water. Please try again in a moment."

// Advisor answers free-text nutrition questions.
type Advisor struct {
	llm  llm.LLMProvider
	opts Options
}

func NewAdvisor(provider llm.LLMProvider, opts Options) *Advisor {
	return &Advisor{llm: provider, opts: opts.withDefaults()}
}

// Reply never fails: upstream errors and empty answers yield CannedReply.
func (a *Advisor) Reply(ctx context.Context, message string) (string, Source) {
	text, err := a.opts.complete(ctx, a.llm, "chat", llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: advisorInstruction},
			{Role: llm.RoleUser, Content: message},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}, true)
	if err != nil {
		a.opts.logFailure(err, log.Fields{"message_len": len(message)})
		return CannedReply, SourceDefault
	}
	return strings.TrimSpace(text), SourceModel
}
