package dice

import "go.uber.org/zap"

// Picker wraps a Source and logger to make logged uniform choices.
// Every draw is logged at debug level with its reason, option count and result.
type Picker struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedPicker creates a Picker that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedPicker(src Source, logger *zap.Logger) *Picker {
	return &Picker{src: src, logger: logger}
}

// Pick draws one of n equally likely outcomes.
//
// Precondition: n > 0.
// Postcondition: the draw is logged; result is in [0, n).
func (p *Picker) Pick(reason string, n int) Draw {
	d := Draw{Reason: reason, Options: n, Chosen: p.src.Intn(n)}
	p.logger.Debug("random draw",
		zap.String("reason", d.Reason),
		zap.Int("options", d.Options),
		zap.Int("chosen", d.Chosen),
	)
	return d
}

// Coin returns true with probability one half.
func (p *Picker) Coin(reason string) bool {
	return p.Pick(reason, 2).Chosen == 0
}
