package responder

import "context"

// summarize regenerates the running summary for a channel from its
// most recent messages. On failure the existing summary is left
// untouched. It does not trigger a persistence write of its own; the
// next append carries the updated summary to the durable store.
func (r *Responder) summarize(ctx context.Context, channelID string) {
	mem := r.manager.GetOrCreate(ctx, channelID)
	if len(mem.Messages) < summaryInterval {
		return
	}

	prompt := summaryPrompt(renderContext(lastN(mem.Messages, contextMessages)))
	text, err := r.provider.GenerateContent(ctx, prompt)
	if err != nil {
		r.logger.Warn("responder: summary generation failed",
			"channel_id", channelID,
			"error", err,
		)
		return
	}

	r.manager.SetSummary(channelID, text)
	if r.metrics != nil {
		r.metrics.RecordSummary()
	}
	r.logger.Debug("responder: summary updated", "channel_id", channelID)
}
