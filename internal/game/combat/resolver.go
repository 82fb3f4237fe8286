package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
)

// OutcomeKind says which payload produced an Outcome.
type OutcomeKind string

// Outcome kinds.
const (
	KindDamage OutcomeKind = "damage"
	KindHeal   OutcomeKind = "heal"
	KindSelf   OutcomeKind = "self"
)

// Effect is one score change applied by a self ability.
type Effect struct {
	Kind  roster.StatKind
	Type  string
	Delta int
}

// Outcome is the result of an ability on one target.
type Outcome struct {
	Actor   roster.CharacterID
	Target  roster.CharacterID
	Ability roster.AbilityID
	Kind    OutcomeKind
	// Band is the effectiveness tier name; empty for self effects and
	// untyped heals.
	Band       string
	Score      int
	Multiplier int
	// Magnitude is the vitality removed or restored.
	Magnitude int
	// Vitality is the target's vitality after the play.
	Vitality int
	// Defeated is true when this play took the target to zero vitality.
	Defeated bool
	Effects  []Effect
}

// Resolver applies resolved plays to character state.
// It is not safe for concurrent use.
type Resolver struct {
	reg     *roster.Registry
	bands   *BandTable
	formula Formula
	ledger  *Ledger
	logger  *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: all arguments must be non-nil.
func NewResolver(reg *roster.Registry, bands *BandTable, formula Formula, ledger *Ledger, logger *zap.Logger) *Resolver {
	return &Resolver{reg: reg, bands: bands, formula: formula, ledger: ledger, logger: logger}
}

// Bands returns the resolver's band table.
func (r *Resolver) Bands() *BandTable { return r.bands }

type plan struct {
	target     *roster.Character
	score      int
	band       string
	multiplier int
	magnitude  int
}

// Apply spends the ability's cost once and applies its payload to every target
// of res.
//
// Precondition: res came from a targeting.Resolver over the same registry with
// no play applied since.
// Postcondition: Returns one Outcome per target in target order. When an error
// is returned no character has been changed.
func (r *Resolver) Apply(res targeting.Resolution) ([]Outcome, error) {
	actor := r.reg.Character(res.Actor())
	ability := r.reg.Ability(res.Ability())
	if actor == nil || ability == nil {
		return nil, fmt.Errorf("applying play: unknown actor %d or ability %d", res.Actor(), res.Ability())
	}
	if actor.AP() < ability.Cost {
		return nil, fmt.Errorf("applying %s: %s has %d AP, needs %d", ability.Key, actor.Name, actor.AP(), ability.Cost)
	}

	if len(ability.SelfEffects) > 0 {
		actor.SpendAP(ability.Cost)
		out := r.applySelf(actor, ability)
		r.log(actor, ability, []Outcome{out})
		return []Outcome{out}, nil
	}

	plans, err := r.plan(actor, ability, res.Targets())
	if err != nil {
		return nil, fmt.Errorf("applying %s: %w", ability.Key, err)
	}

	actor.SpendAP(ability.Cost)
	outcomes := make([]Outcome, 0, len(plans))
	for _, p := range plans {
		o := Outcome{
			Actor:      actor.ID,
			Target:     p.target.ID,
			Ability:    ability.ID,
			Band:       p.band,
			Score:      p.score,
			Multiplier: p.multiplier,
			Magnitude:  p.magnitude,
		}
		wasAlive := p.target.Alive()
		if ability.Offense != nil {
			o.Kind = KindDamage
			o.Vitality = p.target.ApplyDamage(p.magnitude)
		} else {
			o.Kind = KindHeal
			before := p.target.Vitality()
			o.Vitality = p.target.ApplyHeal(p.magnitude)
			o.Magnitude = o.Vitality - before
		}
		o.Defeated = wasAlive && !p.target.Alive()
		outcomes = append(outcomes, o)
	}
	r.log(actor, ability, outcomes)
	return outcomes, nil
}

// plan computes every target's magnitude before anything is mutated, so a
// failing formula leaves the match untouched.
func (r *Resolver) plan(actor *roster.Character, ability *roster.Ability, targets []roster.CharacterID) ([]plan, error) {
	plans := make([]plan, 0, len(targets))
	for _, id := range targets {
		target := r.reg.Character(id)
		if target == nil {
			return nil, fmt.Errorf("unknown target %d", id)
		}
		p := plan{target: target, multiplier: 100}
		switch {
		case ability.Offense != nil:
			o := ability.Offense
			if err := r.score(&p, actor.AttackScore(o.AttackType), target.DefenseScore(o.DefenseType)); err != nil {
				return nil, err
			}
			p.magnitude = o.Damage * p.multiplier * (100 - target.Reduction(o.DamageType)) / 10000
		case ability.Heal != nil:
			h := ability.Heal
			if h.AttackType != "" {
				if err := r.score(&p, actor.AttackScore(h.AttackType), target.DefenseScore(h.DefenseType)); err != nil {
					return nil, err
				}
			}
			p.magnitude = h.Amount * p.multiplier / 100
		}
		if p.magnitude < 0 {
			p.magnitude = 0
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (r *Resolver) score(p *plan, attack, defense int) error {
	score, err := r.formula.EffectScore(attack, defense)
	if err != nil {
		return fmt.Errorf("effect score for %s: %w", p.target.Name, err)
	}
	band := r.bands.Lookup(score)
	p.score = score
	p.band = band.Name
	p.multiplier = band.Multiplier
	return nil
}

func (r *Resolver) applySelf(actor *roster.Character, ability *roster.Ability) Outcome {
	o := Outcome{
		Actor:    actor.ID,
		Target:   actor.ID,
		Ability:  ability.ID,
		Kind:     KindSelf,
		Vitality: actor.Vitality(),
	}
	for _, e := range ability.SelfEffects {
		applied := actor.AdjustScore(e.Kind, e.Type, e.Delta)
		r.ledger.Record(Buff{Character: actor.ID, Kind: e.Kind, Type: e.Type, Delta: applied})
		o.Effects = append(o.Effects, Effect{Kind: e.Kind, Type: e.Type, Delta: applied})
	}
	return o
}

func (r *Resolver) log(actor *roster.Character, ability *roster.Ability, outcomes []Outcome) {
	for _, o := range outcomes {
		r.logger.Debug("play applied",
			zap.String("actor", actor.Name),
			zap.String("ability", ability.Key),
			zap.Int("target", int(o.Target)),
			zap.String("kind", string(o.Kind)),
			zap.String("band", o.Band),
			zap.Int("score", o.Score),
			zap.Int("magnitude", o.Magnitude),
			zap.Int("vitality", o.Vitality),
			zap.Int("ap", actor.AP()),
		)
	}
}
