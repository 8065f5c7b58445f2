package morph

import (
	"context"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// Follow keeps the text adapted to the coordinator's voice. The current voice
// is applied at once; later theme changes re-trigger the text.
func (t *Text) Follow(ctx context.Context, c *coordinator.Coordinator) (stop func()) {
	unsubscribe := c.Subscribe(func(s coordinator.Snapshot) {
		t.SetVoice(ctx, s.Vibe.Voice)
	})
	t.SetVoice(ctx, c.Active().Voice)

	return func() {
		unsubscribe()
		t.Close()
	}
}

// Heading decorates a heading for the emoji frequency.
func Heading(text string, emoji vibe.EmojiFrequency) string {
	if emoji == vibe.EmojiHigh {
		return text + " ✨"
	}
	return text
}
