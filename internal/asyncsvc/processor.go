package asyncsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxItemBytes bounds the encoded size of one processed item.
const MaxItemBytes = 64 * 1024

// Processed is the result of running one item through the Processor.
type Processed struct {
	OriginalData   any    `json:"original_data"`
	ProcessedAt    string `json:"processed_at"`
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
}

// Processor stamps items and counts their words and characters after a
// fixed simulated delay.
type Processor struct {
	delay time.Duration
	now   func() time.Time
}

// NewProcessor creates a Processor that waits delay per item.
func NewProcessor(delay time.Duration) *Processor {
	return &Processor{delay: delay, now: func() time.Time { return time.Now().UTC() }}
}

// text is the form items are measured in: strings as-is, anything else
// as its JSON encoding.
func text(data any) (string, error) {
	if s, ok := data.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Process measures one item. It fails when ctx ends before the delay
// elapses or the item is too large.
func (p *Processor) Process(ctx context.Context, data any) (Processed, error) {
	s, err := text(data)
	if err != nil {
		return Processed{}, fmt.Errorf("item is not encodable: %w", err)
	}
	if len(s) > MaxItemBytes {
		return Processed{}, fmt.Errorf("item exceeds %d bytes", MaxItemBytes)
	}

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Processed{}, ctx.Err()
		case <-timer.C:
		}
	}

	return Processed{
		OriginalData:   data,
		ProcessedAt:    p.now().Format(time.RFC3339Nano),
		WordCount:      len(strings.Fields(s)),
		CharacterCount: len([]rune(s)),
	}, nil
}
