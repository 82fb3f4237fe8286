package match

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/turn"
	"github.com/cory-johannsen/korodan/internal/storage/postgres"
)

// DefaultSaveTimeout bounds the write of a finished match.
const DefaultSaveTimeout = 10 * time.Second

// Store persists finished matches.
type Store interface {
	SaveMatch(ctx context.Context, m postgres.MatchRecord, events []postgres.EventRecord) error
}

// Recorder collects the events of a match and saves them when it ends.
// It never feeds anything back into the match.
type Recorder struct {
	mu      sync.Mutex
	match   *Match
	store   Store
	timeout time.Duration
	events  []postgres.EventRecord
	saved   bool
	err     error
	stop    func()
}

// NewRecorder subscribes a recorder to m's orchestrator.
//
// Precondition: m and store must be non-nil.
// Postcondition: every later event is recorded; the match is saved once on
// turn.EventMatchEnded.
func NewRecorder(m *Match, store Store) *Recorder {
	r := &Recorder{match: m, store: store, timeout: DefaultSaveTimeout}
	r.stop = m.Orchestrator.Subscribe(r.handle)
	return r
}

// Stop detaches the recorder from the match.
func (r *Recorder) Stop() { r.stop() }

// Events returns a copy of what has been recorded.
func (r *Recorder) Events() []postgres.EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]postgres.EventRecord(nil), r.events...)
}

// Saved reports whether the match was stored.
func (r *Recorder) Saved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

// Err returns the error of the last save attempt.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) handle(ev turn.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := postgres.EventRecord{
		Seq:   len(r.events),
		Kind:  string(ev.Kind),
		Round: ev.Round,
		Turn:  ev.Turn,
		Team:  string(ev.Team),
	}
	payload, err := json.Marshal(r.payload(ev))
	if err != nil {
		r.match.Logger.Warn("history: encoding event", zap.String("kind", rec.Kind), zap.Error(err))
	} else {
		rec.Payload = payload
	}
	r.events = append(r.events, rec)

	if ev.Kind == turn.EventMatchEnded && !r.saved {
		r.save(ev)
	}
}

// save writes the match. Caller holds r.mu.
func (r *Recorder) save(ev turn.Event) {
	m := r.match
	summary := postgres.MatchRecord{
		ID:        m.ID,
		Mode:      m.Game.Mode,
		WallMap:   m.Game.WallMap,
		Seed:      m.Game.Seed,
		Winner:    string(ev.Team),
		Rounds:    ev.Round,
		StartedAt: m.StartedAt,
		EndedAt:   time.Now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.err = r.store.SaveMatch(ctx, summary, r.events)
	if r.err != nil {
		m.Logger.Error("history: saving match", zap.Error(r.err))
		return
	}
	r.saved = true
	m.Logger.Info("history: match saved", zap.Int("events", len(r.events)), zap.String("winner", summary.Winner))
}

type eventPayload struct {
	Characters []string      `json:"characters,omitempty"`
	Play       *playPayload  `json:"play,omitempty"`
	Buffs      []buffPayload `json:"buffs,omitempty"`
}

type playPayload struct {
	Actor    string           `json:"actor"`
	Kind     string           `json:"kind"`
	Ability  string           `json:"ability,omitempty"`
	Cost     int              `json:"cost"`
	From     string           `json:"from"`
	Path     []string         `json:"path,omitempty"`
	Outcomes []outcomePayload `json:"outcomes,omitempty"`
}

type outcomePayload struct {
	Target    string `json:"target"`
	Kind      string `json:"kind"`
	Band      string `json:"band,omitempty"`
	Score     int    `json:"score"`
	Magnitude int    `json:"magnitude"`
	Vitality  int    `json:"vitality"`
	Defeated  bool   `json:"defeated,omitempty"`
}

type buffPayload struct {
	Character string `json:"character"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Delta     int    `json:"delta"`
}

func (r *Recorder) payload(ev turn.Event) eventPayload {
	reg := r.match.Registry
	var p eventPayload
	for _, id := range ev.Characters {
		p.Characters = append(p.Characters, nameOf(reg, id))
	}
	if ev.Play != nil {
		play := &playPayload{
			Actor: nameOf(reg, ev.Play.Actor),
			Kind:  string(ev.Play.Kind),
			Cost:  ev.Play.Cost,
			From:  ev.Play.From.String(),
		}
		if ev.Play.Kind == turn.PlayAbility {
			if a := reg.Ability(ev.Play.Ability); a != nil {
				play.Ability = a.Key
			}
		}
		for _, c := range ev.Play.Path {
			play.Path = append(play.Path, c.String())
		}
		for _, o := range ev.Play.Outcomes {
			play.Outcomes = append(play.Outcomes, outcomePayload{
				Target:    nameOf(reg, o.Target),
				Kind:      string(o.Kind),
				Band:      o.Band,
				Score:     o.Score,
				Magnitude: o.Magnitude,
				Vitality:  o.Vitality,
				Defeated:  o.Defeated,
			})
		}
		p.Play = play
	}
	for _, b := range ev.Buffs {
		p.Buffs = append(p.Buffs, buffPayload{
			Character: nameOf(reg, b.Character),
			Kind:      string(b.Kind),
			Type:      b.Type,
			Delta:     b.Delta,
		})
	}
	return p
}

func nameOf(reg *roster.Registry, id roster.CharacterID) string {
	if c := reg.Character(id); c != nil {
		return c.Name
	}
	return ""
}
