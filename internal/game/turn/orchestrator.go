package turn

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/dice"
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
)

// Options configures an Orchestrator.
type Options struct {
	Mode       Mode
	SecondPlay SecondPlay
	// MoveCost is the action point cost of one movement step.
	MoveCost int
}

// Orchestrator drives a match through rounds, turns and plays.
//
// All methods are safe for concurrent use; plays are applied one at a time.
// Events are delivered to subscribers after the producing call releases its
// lock.
type Orchestrator struct {
	mu      sync.Mutex
	reg     *roster.Registry
	grid    *hexgrid.Grid
	targets *targeting.Resolver
	combat  *combat.Resolver
	ledger  *combat.Ledger
	policy  policy
	board   *board
	logger  *zap.Logger

	phase     Phase
	round     int
	turn      int
	winner    roster.Team
	selection *Selection

	subs        []subscription
	nextSub     int
	pending     []Event
	dispatching bool
}

// New creates an Orchestrator in PhaseNotStarted.
//
// Precondition: all pointers must be non-nil and built over reg and grid.
// Postcondition: Returns an error for an unknown mode or a non-positive MoveCost.
func New(reg *roster.Registry, grid *hexgrid.Grid, resolver *combat.Resolver, ledger *combat.Ledger, picker *dice.Picker, opts Options, logger *zap.Logger) (*Orchestrator, error) {
	p, err := newPolicy(opts.Mode, opts.SecondPlay)
	if err != nil {
		return nil, err
	}
	if opts.MoveCost <= 0 {
		return nil, fmt.Errorf("move cost must be > 0, got %d", opts.MoveCost)
	}
	return &Orchestrator{
		reg:     reg,
		grid:    grid,
		targets: targeting.NewResolver(reg, grid),
		combat:  resolver,
		ledger:  ledger,
		policy:  p,
		board:   &board{reg: reg, picker: picker, moveCost: opts.MoveCost},
		logger:  logger.With(zap.String("mode", string(opts.Mode))),
		phase:   PhaseNotStarted,
	}, nil
}

// Registry returns the roster the match is played with.
func (o *Orchestrator) Registry() *roster.Registry { return o.reg }

// Grid returns the board.
func (o *Orchestrator) Grid() *hexgrid.Grid { return o.grid }

// Subscribe registers h for every subsequent event and returns a function
// that removes it.
func (o *Orchestrator) Subscribe(h Handler) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextSub++
	id := o.nextSub
	o.subs = append(o.subs, subscription{id: id, fn: h})
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

// Start opens the first round.
//
// Precondition: phase is PhaseNotStarted.
// Postcondition: phase is PhaseSelectingCharacters or PhaseAwaitingPlay.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.phase != PhaseNotStarted {
		o.mu.Unlock()
		return targeting.Reject(ErrWrongPhase, "match already started")
	}
	o.logger.Info("match started", zap.Int("characters", len(o.reg.Characters())))
	o.startRound()
	o.mu.Unlock()
	o.flush()
	return nil
}

// CurrentState returns a snapshot of the state machine.
func (o *Orchestrator) CurrentState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := State{
		Phase:  o.phase,
		Mode:   o.policy.mode(),
		Round:  o.round,
		Turn:   o.turn,
		Active: o.policy.participants(),
		Winner: o.winner,
	}
	if o.selection != nil {
		sel := *o.selection
		s.Selection = &sel
	}
	if c, ok := o.expected(); ok {
		s.Expected, s.HasExpected = c.ID, true
		s.ActiveTeam = c.Team
	} else if o.phase == PhaseSelectingCharacters {
		s.ActiveTeam = o.policy.activeTeam(o.board)
	}
	return s
}

// OfferLegalCharacters returns the characters that may be selected for the
// next turn, or the one character expected to play.
func (o *Orchestrator) OfferLegalCharacters() []roster.CharacterID {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.phase {
	case PhaseSelectingCharacters:
		return ids(o.policy.candidates(o.board))
	case PhaseAwaitingPlay, PhaseSelectingTarget:
		if c, ok := o.expected(); ok {
			return []roster.CharacterID{c.ID}
		}
	}
	return nil
}

// OfferLegalAbilities returns the abilities character can afford that have at
// least one legal target right now, in loadout order.
//
// Postcondition: nothing is mutated; repeated calls return the same set.
func (o *Orchestrator) OfferLegalAbilities(character roster.CharacterID) []roster.AbilityID {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.expected()
	if !ok || c.ID != character {
		return nil
	}
	var out []roster.AbilityID
	for _, id := range c.Abilities {
		a := o.reg.Ability(id)
		if a == nil || a.Cost > c.AP() {
			continue
		}
		if p := o.targets.Legal(c.ID, id); len(p.Characters) > 0 || len(p.Cells) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// SelectCharacters opens a turn with the chosen characters.
//
// Precondition: phase is PhaseSelectingCharacters.
// Postcondition: on success the turn has started; on error nothing changed.
func (o *Orchestrator) SelectCharacters(chosen ...roster.CharacterID) error {
	o.mu.Lock()
	if o.phase != PhaseSelectingCharacters {
		o.mu.Unlock()
		return targeting.Reject(ErrWrongPhase, "no character selection pending")
	}
	if err := o.policy.selectTurn(o.board, chosen); err != nil {
		o.mu.Unlock()
		return err
	}
	o.beginTurn()
	o.mu.Unlock()
	o.flush()
	return nil
}

// BeginSelection starts aiming ability and returns its legal targets.
//
// Precondition: character is the one expected to play.
// Postcondition: phase is PhaseSelectingTarget; nothing else changed.
func (o *Orchestrator) BeginSelection(character roster.CharacterID, ability roster.AbilityID) (targeting.Preview, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseAwaitingPlay && o.phase != PhaseSelectingTarget {
		return targeting.Preview{}, targeting.Reject(ErrWrongPhase, "cannot select a target during %s", o.phase)
	}
	c, err := o.actor(character)
	if err != nil {
		return targeting.Preview{}, err
	}
	a := o.reg.Ability(ability)
	if a == nil || !c.HasAbility(ability) {
		return targeting.Preview{}, targeting.Reject(targeting.ErrInvalidFocusTarget, "%s does not hold ability %d", c.Name, ability)
	}
	if a.Cost > c.AP() {
		return targeting.Preview{}, targeting.Reject(targeting.ErrInsufficientResources, "%s has %d AP, %s costs %d", c.Name, c.AP(), a.Key, a.Cost)
	}
	o.selection = &Selection{Character: character, Ability: ability}
	o.phase = PhaseSelectingTarget
	return o.targets.Legal(character, ability), nil
}

// CancelSelection abandons target selection.
//
// Precondition: phase is PhaseSelectingTarget.
// Postcondition: phase is PhaseAwaitingPlay; nothing else changed.
func (o *Orchestrator) CancelSelection() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseSelectingTarget {
		return targeting.Reject(ErrWrongPhase, "no target selection to cancel")
	}
	o.selection = nil
	o.phase = PhaseAwaitingPlay
	return nil
}

// SubmitPlay validates and applies one play.
//
// Precondition: phase is PhaseAwaitingPlay or PhaseSelectingTarget.
// Postcondition: on success the play is fully applied and the state machine
// has advanced; on a *targeting.Rejection nothing changed.
func (o *Orchestrator) SubmitPlay(p Play) (PlayRecord, error) {
	o.mu.Lock()
	rec, err := o.submit(p)
	o.mu.Unlock()
	o.flush()
	return rec, err
}

func (o *Orchestrator) submit(p Play) (PlayRecord, error) {
	if o.phase != PhaseAwaitingPlay && o.phase != PhaseSelectingTarget {
		return PlayRecord{}, targeting.Reject(ErrWrongPhase, "cannot play during %s", o.phase)
	}
	c, err := o.actor(p.Character)
	if err != nil {
		return PlayRecord{}, err
	}

	var rec PlayRecord
	switch p.Kind {
	case PlayAbility:
		rec, err = o.applyAbility(c, p)
	case PlayMove:
		rec, err = o.applyMove(c, p.To)
	case PlayPass:
		rec = PlayRecord{Actor: c.ID, Kind: PlayPass, From: c.Cell()}
		c.DrainAP()
	default:
		err = targeting.Reject(targeting.ErrInvalidFocusTarget, "unknown play kind %q", p.Kind)
	}
	if err != nil {
		o.logger.Debug("play rejected", zap.String("actor", c.Name), zap.String("kind", string(p.Kind)), zap.Error(err))
		return PlayRecord{}, err
	}

	o.selection = nil
	o.phase = PhaseAwaitingPlay
	o.policy.played(o.board, c)
	o.logger.Debug("play committed",
		zap.String("actor", c.Name),
		zap.String("kind", string(rec.Kind)),
		zap.Int("cost", rec.Cost),
		zap.Int("ap", c.AP()),
	)
	o.emit(Event{Kind: EventPlayResolved, Team: c.Team, Characters: []roster.CharacterID{c.ID}, Play: &rec})
	for _, out := range rec.Outcomes {
		if out.Defeated {
			o.logger.Info("character defeated", zap.Int("character", int(out.Target)))
			o.emit(Event{Kind: EventCharacterDefeated, Characters: []roster.CharacterID{out.Target}})
		}
	}
	o.advance()
	return rec, nil
}

// actor checks that id is the character expected to play.
func (o *Orchestrator) actor(id roster.CharacterID) (*roster.Character, error) {
	c := o.reg.Character(id)
	if c == nil {
		return nil, targeting.Reject(targeting.ErrInvalidFocusTarget, "unknown character %d", id)
	}
	if exp, ok := o.expected(); !ok || exp.ID != id {
		if c.Incapacitated() {
			return nil, targeting.Reject(targeting.ErrCharacterIncapacitated, "%s cannot play", c.Name)
		}
		return nil, targeting.Reject(ErrNotYourTurn, "%s is not expected to play", c.Name)
	}
	return c, nil
}

func (o *Orchestrator) applyAbility(c *roster.Character, p Play) (PlayRecord, error) {
	res, err := o.targets.Resolve(c.ID, p.Ability, p.Target)
	if err != nil {
		return PlayRecord{}, err
	}
	prev := o.phase
	o.phase = PhaseApplyingPlay
	outcomes, err := o.combat.Apply(res)
	if err != nil {
		o.phase = prev
		return PlayRecord{}, err
	}
	return PlayRecord{
		Actor:    c.ID,
		Kind:     PlayAbility,
		Ability:  p.Ability,
		Cost:     o.reg.Ability(p.Ability).Cost,
		From:     c.Cell(),
		Outcomes: outcomes,
	}, nil
}

func (o *Orchestrator) applyMove(c *roster.Character, to hexgrid.Cell) (PlayRecord, error) {
	from := c.Cell()
	switch {
	case to == from:
		return PlayRecord{}, targeting.Reject(targeting.ErrInvalidFocusTarget, "%s already stands on %s", c.Name, to)
	case !o.grid.InBounds(to):
		return PlayRecord{}, targeting.Reject(targeting.ErrInvalidFocusTarget, "cell %s is off the board", to)
	case o.grid.IsWall(to):
		return PlayRecord{}, targeting.Reject(targeting.ErrInvalidFocusTarget, "cell %s is a wall", to)
	}
	if other, ok := o.reg.OccupantAt(to); ok {
		return PlayRecord{}, targeting.Reject(targeting.ErrInvalidFocusTarget, "cell %s is occupied by %s", to, other.Name)
	}
	path, ok := o.grid.Path(from, to, func(cell hexgrid.Cell) bool {
		_, occupied := o.reg.OccupantAt(cell)
		return !occupied
	})
	if !ok {
		return PlayRecord{}, targeting.Reject(targeting.ErrBlockedByWall, "no open path from %s to %s", from, to)
	}
	cost := len(path) * o.board.moveCost
	if !c.SpendAP(cost) {
		return PlayRecord{}, targeting.Reject(targeting.ErrInsufficientResources, "%s has %d AP, moving %d cells costs %d", c.Name, c.AP(), len(path), cost)
	}
	c.MoveTo(to)
	return PlayRecord{Actor: c.ID, Kind: PlayMove, Cost: cost, From: from, Path: path}, nil
}

func (o *Orchestrator) expected() (*roster.Character, bool) {
	if o.phase != PhaseAwaitingPlay && o.phase != PhaseSelectingTarget && o.phase != PhaseApplyingPlay {
		return nil, false
	}
	return o.policy.next(o.board)
}

func (o *Orchestrator) startRound() {
	if o.matchOver() {
		return
	}
	o.round++
	o.turn = 0
	o.expire(combat.ExpireRound)
	for _, c := range o.reg.Characters() {
		if c.Alive() {
			c.RestoreAP()
		}
	}
	o.policy.startRound(o.board)
	o.logger.Info("round started", zap.Int("round", o.round))
	o.emit(Event{Kind: EventRoundStarted})
	o.startTurn()
}

func (o *Orchestrator) startTurn() {
	if o.policy.roundOver(o.board) {
		o.endRound()
		return
	}
	if o.policy.needsSelection() {
		o.phase = PhaseSelectingCharacters
		return
	}
	if !o.policy.startTurn(o.board) {
		o.endRound()
		return
	}
	o.beginTurn()
}

func (o *Orchestrator) beginTurn() {
	o.turn++
	o.phase = PhaseAwaitingPlay
	participants := o.policy.participants()
	o.logger.Debug("turn started", zap.Int("round", o.round), zap.Int("turn", o.turn), zap.Ints("characters", toInts(participants)))
	o.emit(Event{Kind: EventTurnStarted, Team: o.policy.activeTeam(o.board), Characters: participants})
	o.advance()
}

// advance ends the match, or the turn, when nothing more can be played.
func (o *Orchestrator) advance() {
	if o.matchOver() {
		o.endMatch()
		return
	}
	if _, ok := o.policy.next(o.board); !ok {
		o.endTurn()
	}
}

func (o *Orchestrator) endTurn() {
	o.emit(Event{Kind: EventTurnEnded, Characters: o.policy.participants()})
	o.policy.endTurn(o.board)
	o.expire(combat.ExpireTurn)
	o.startTurn()
}

func (o *Orchestrator) endRound() {
	o.logger.Info("round ended", zap.Int("round", o.round), zap.Int("turns", o.turn))
	o.emit(Event{Kind: EventRoundEnded})
	o.startRound()
}

func (o *Orchestrator) matchOver() bool {
	return o.reg.Defeated(roster.Left) || o.reg.Defeated(roster.Right)
}

func (o *Orchestrator) endMatch() {
	o.phase = PhaseMatchEnded
	o.selection = nil
	switch {
	case o.reg.Defeated(roster.Left) && !o.reg.Defeated(roster.Right):
		o.winner = roster.Right
	case o.reg.Defeated(roster.Right) && !o.reg.Defeated(roster.Left):
		o.winner = roster.Left
	}
	o.logger.Info("match ended", zap.String("winner", string(o.winner)), zap.Int("round", o.round))
	o.emit(Event{Kind: EventMatchEnded, Team: o.winner})
}

func (o *Orchestrator) expire(boundary combat.Expiry) {
	if reverted := o.ledger.Expire(o.reg, boundary); len(reverted) > 0 {
		o.emit(Event{Kind: EventBuffsExpired, Buffs: reverted})
	}
}

// emit queues an event. Caller holds o.mu.
func (o *Orchestrator) emit(ev Event) {
	ev.Round, ev.Turn = o.round, o.turn
	o.pending = append(o.pending, ev)
}

// flush delivers queued events outside the lock. A flush already in progress
// further up the stack delivers events queued by nested calls.
func (o *Orchestrator) flush() {
	o.mu.Lock()
	if o.dispatching {
		o.mu.Unlock()
		return
	}
	o.dispatching = true
	for len(o.pending) > 0 {
		ev := o.pending[0]
		o.pending = o.pending[1:]
		subs := append([]subscription(nil), o.subs...)
		o.mu.Unlock()
		for _, s := range subs {
			s.fn(ev)
		}
		o.mu.Lock()
	}
	o.dispatching = false
	o.mu.Unlock()
}

func toInts(chars []roster.CharacterID) []int {
	out := make([]int, len(chars))
	for i, c := range chars {
		out[i] = int(c)
	}
	return out
}
