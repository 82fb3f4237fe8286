package console

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/turn"
)

func (h *Host) showStatus() {
	o := h.m.Orchestrator
	s := o.CurrentState()
	h.printf("%s\n", h.colors.Colorf(BrightYellow, "Round %d, turn %d (%s, %s)", s.Round, s.Turn, s.Mode, s.Phase))
	switch {
	case s.Phase == turn.PhaseMatchEnded:
		if s.Winner.Valid() {
			h.printf("Winner: %s\n", h.teamName(s.Winner))
		} else {
			h.printf("No winner.\n")
		}
	case s.Phase == turn.PhaseSelectingCharacters:
		var names []string
		for _, id := range o.OfferLegalCharacters() {
			names = append(names, h.m.Registry.Character(id).Name)
		}
		who := "both teams"
		if s.Mode == turn.ModeFreeDouble {
			who = h.teamName(s.ActiveTeam)
		}
		h.printf("Select for %s from: %s\n", who, strings.Join(names, ", "))
	case s.HasExpected:
		c := h.m.Registry.Character(s.Expected)
		h.printf("%s (%s) to play with %d AP.\n", c.Name, h.teamName(c.Team), c.AP())
		if s.Selection != nil {
			h.printf("Aiming %s.\n", h.m.Registry.Ability(s.Selection.Ability).Key)
		}
	}
}

func (h *Host) showCharacters() {
	for _, t := range roster.Teams {
		header := h.colors.Colorize(Bold, h.teamName(t))
		if emblem := h.m.Emblem(t); emblem != "" {
			header += h.colors.Colorf(Dim, "  [%s]", emblem)
		}
		h.printf("%s\n", header)
		for _, c := range h.m.Registry.Members(t) {
			state := ""
			switch {
			case !c.Alive():
				state = h.colors.Colorize(BrightRed, " defeated")
			case c.Incapacitated():
				state = h.colors.Colorize(Dim, " spent")
			}
			h.printf("  %-12s %-9s AP %2d/%-2d  VIT %3d/%-3d%s\n",
				c.Name, c.Cell(), c.AP(), c.MaxAP, c.Vitality(), c.MaxVitality, state)
		}
	}
}

// show describes the character or ability called name, with the files a
// graphical host would load for it.
func (h *Host) show(name string) error {
	if name == "" {
		return fmt.Errorf("usage: show <character | ability>")
	}
	if c, err := h.character(name); err == nil {
		h.showCharacter(c)
		return nil
	}
	a, err := h.ability(name)
	if err != nil {
		return fmt.Errorf("no character or ability named %q", name)
	}
	h.showAbility(a)
	return nil
}

func (h *Host) showCharacter(c *roster.Character) {
	h.printf("%s (%s)\n", h.colors.Colorize(Bold, c.Name), h.teamName(c.Team))
	h.printf("  cell %s  AP %d/%d  VIT %d/%d  initiative %d\n",
		c.Cell(), c.AP(), c.MaxAP, c.Vitality(), c.MaxVitality, c.Initiative)
	keys := make([]string, len(c.Abilities))
	for i, id := range c.Abilities {
		keys[i] = h.m.Registry.Ability(id).Key
	}
	h.printf("  abilities: %s\n", strings.Join(keys, ", "))
	if p := h.m.Portrait(c); p != "" {
		h.printf("  portrait: %s\n", p)
	}
}

func (h *Host) showAbility(a *roster.Ability) {
	h.printf("%s (%s)\n", h.colors.Colorize(Bold, a.Name), a.Key)
	h.printf("  %s, %s, %s  cost %d  range %d  radius %d\n",
		a.Focus, a.Access, a.Antagonist, a.Cost, a.Range, a.Radius)
	image, background, sound := h.m.AbilityMedia(a)
	for _, f := range []struct{ label, path string }{
		{"image", image}, {"background", background}, {"sound", sound},
	} {
		if f.path != "" {
			h.printf("  %s: %s\n", f.label, f.path)
		}
	}
}

func (h *Host) showAbilities() error {
	actor, err := h.expected()
	if err != nil {
		return err
	}
	offered := h.m.Orchestrator.OfferLegalAbilities(actor.ID)
	if len(offered) == 0 {
		h.printf("%s has nothing to use; move or pass.\n", actor.Name)
		return nil
	}
	h.printf("%s can use:\n", actor.Name)
	for _, id := range offered {
		a := h.m.Registry.Ability(id)
		h.printf("  %-16s cost %-2d range %-2d %s\n", a.Key, a.Cost, a.Range, a.Name)
	}
	return nil
}

func (h *Host) showHelp() {
	h.printf("%s\n", h.colors.Colorize(BrightWhite, "Available commands:"))
	for _, sec := range h.registry.Sections() {
		h.printf("%s\n", h.colors.Colorf(BrightYellow, "  %s:", sec.Title))
		for _, cmd := range sec.Commands {
			aliases := ""
			if len(cmd.Aliases) > 0 {
				aliases = " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			h.printf("    %s%s: %s\n", h.colors.Colorf(Green, "%-34s", cmd.Usage), aliases, cmd.Help)
		}
	}
}

func (h *Host) onEvent(ev turn.Event) {
	reg := h.m.Registry
	switch ev.Kind {
	case turn.EventRoundStarted:
		h.printf("%s\n", h.colors.Colorf(BrightBlue, "== Round %d ==", ev.Round))
	case turn.EventTurnStarted:
		h.printf("-- Turn %d: %s --\n", ev.Turn, h.names(ev.Characters))
	case turn.EventPlayResolved:
		h.showPlay(ev.Play)
	case turn.EventCharacterDefeated:
		h.printf("%s\n", h.colors.Colorf(BrightRed, "%s is defeated!", h.names(ev.Characters)))
	case turn.EventBuffsExpired:
		for _, b := range ev.Buffs {
			h.printf("  %s: %s %s back by %d\n", reg.Character(b.Character).Name, b.Kind, b.Type, b.Delta)
		}
	case turn.EventRoundEnded:
		h.printf("%s\n", h.colors.Colorf(BrightBlue, "== Round %d over ==", ev.Round))
	case turn.EventMatchEnded:
		if ev.Team.Valid() {
			h.printf("%s\n", h.colors.Colorf(BrightYellow, "*** %s wins ***", h.teamName(ev.Team)))
		} else {
			h.printf("%s\n", h.colors.Colorize(BrightYellow, "*** No winner ***"))
		}
	}
}

func (h *Host) showPlay(p *turn.PlayRecord) {
	reg := h.m.Registry
	actor := reg.Character(p.Actor)
	switch p.Kind {
	case turn.PlayPass:
		h.printf("%s passes.\n", actor.Name)
	case turn.PlayMove:
		h.printf("%s moves %s to %s (%d steps, %d AP).\n", actor.Name, p.From, actor.Cell(), len(p.Path), p.Cost)
	case turn.PlayAbility:
		h.printf("%s uses %s (%d AP).\n", actor.Name, reg.Ability(p.Ability).Key, p.Cost)
		for _, out := range p.Outcomes {
			target := reg.Character(out.Target).Name
			switch out.Kind {
			case combat.KindDamage:
				h.printf("  %s: %s (score %d) takes %d, vitality %d\n", target, out.Band, out.Score, out.Magnitude, out.Vitality)
			case combat.KindHeal:
				h.printf("  %s: healed %d, vitality %d\n", target, out.Magnitude, out.Vitality)
			case combat.KindSelf:
				for _, e := range out.Effects {
					h.printf("  %s: %s %s %+d\n", target, e.Kind, e.Type, e.Delta)
				}
			}
		}
	}
}

func (h *Host) names(ids []roster.CharacterID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = h.m.Registry.Character(id).Name
	}
	return strings.Join(names, ", ")
}
