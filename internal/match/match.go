// Package match assembles a playable skirmish from configuration and content.
package match

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/korodan/content"
	"github.com/cory-johannsen/korodan/internal/config"
	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/dice"
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/turn"
	"github.com/cory-johannsen/korodan/internal/observability"
	"github.com/cory-johannsen/korodan/internal/scripting"
)

// Match is one configured skirmish and everything it is played with.
type Match struct {
	ID           uuid.UUID
	Game         config.GameConfig
	Assets       config.AssetsConfig
	Registry     *roster.Registry
	Grid         *hexgrid.Grid
	Bands        *combat.BandTable
	Ledger       *combat.Ledger
	Orchestrator *turn.Orchestrator
	StartedAt    time.Time
	Logger       *zap.Logger

	closers []func()
}

// New builds a match from cfg, reading content from cfg.Game.ContentDir or
// the embedded defaults.
//
// Precondition: cfg must pass config validation; logger must be non-nil.
// Postcondition: Returns a match in turn.PhaseNotStarted or an error naming
// the failing step. The caller must Close the match.
func New(cfg config.Config, logger *zap.Logger) (*Match, error) {
	return FromContent(content.Open(cfg.Game.ContentDir), cfg, logger)
}

// FromContent builds a match from the roster and wall maps in fsys.
//
// Precondition: cfg must pass config validation; logger must be non-nil.
// Postcondition: as New.
func FromContent(fsys fs.FS, cfg config.Config, logger *zap.Logger) (*Match, error) {
	game := cfg.Game
	mode, err := turn.ParseMode(game.Mode)
	if err != nil {
		return nil, err
	}
	expiry := combat.Expiry(game.BuffExpiry)
	if !expiry.Valid() {
		return nil, fmt.Errorf("unknown buff expiry %q", game.BuffExpiry)
	}

	id := uuid.New()
	log := observability.ForMatch(logger, id, game.Mode)

	grid, err := content.LoadWallMap(fsys, game.WallMap, hexgrid.DefaultGeometry)
	if err != nil {
		return nil, fmt.Errorf("loading board: %w", err)
	}
	def, err := content.LoadRoster(fsys)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	reg, err := roster.Build(def, grid)
	if err != nil {
		return nil, fmt.Errorf("building roster: %w", err)
	}
	bands, err := combat.NewBandTable(BandsFromDefinition(def.Bands))
	if err != nil {
		return nil, fmt.Errorf("building band table: %w", err)
	}

	m := &Match{
		ID:        id,
		Game:      game,
		Assets:    cfg.Assets,
		Registry:  reg,
		Grid:      grid,
		Bands:     bands,
		Ledger:    combat.NewLedger(expiry),
		StartedAt: time.Now(),
		Logger:    log,
	}

	formula, err := m.formula()
	if err != nil {
		return nil, err
	}
	resolver := combat.NewResolver(reg, bands, formula, m.Ledger, log)
	picker := dice.NewLoggedPicker(dice.SourceFromSeed(game.Seed), log)
	m.Orchestrator, err = turn.New(reg, grid, resolver, m.Ledger, picker, turn.Options{
		Mode:       mode,
		SecondPlay: turn.SecondPlay(game.SecondPlay),
		MoveCost:   game.MoveCost,
	}, log)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	log.Info("match ready",
		zap.String("wall_map", game.WallMap),
		zap.Int("walls", len(grid.Walls())),
		zap.Int("characters", len(reg.Characters())),
		zap.String("buff_expiry", game.BuffExpiry),
		zap.Bool("scripted_formula", game.EffectScript != ""),
	)
	return m, nil
}

func (m *Match) formula() (combat.Formula, error) {
	if m.Game.EffectScript == "" {
		return combat.OffsetFormula{Offset: m.Game.EffectOffset}, nil
	}
	f, err := scripting.LoadLuaFormula(m.Game.EffectScript, m.Game.ScriptInstructionLimit, m.Logger)
	if err != nil {
		return nil, fmt.Errorf("loading effect formula: %w", err)
	}
	m.closers = append(m.closers, f.Close)
	return f, nil
}

// Close releases the scripting state held by the match.
func (m *Match) Close() {
	for i := len(m.closers) - 1; i >= 0; i-- {
		m.closers[i]()
	}
	m.closers = nil
}

// Portrait returns the on-disk portrait of c under the configured asset folders.
func (m *Match) Portrait(c *roster.Character) string {
	if c.Portrait == "" {
		return ""
	}
	return m.Assets.Portrait(c.Portrait)
}

// Emblem returns the on-disk emblem of team t.
func (m *Match) Emblem(t roster.Team) string {
	info, ok := m.Registry.Team(t)
	if !ok || info.Emblem == "" {
		return ""
	}
	return m.Assets.Asset(info.Emblem)
}

// AbilityMedia returns the on-disk image, background and sound of a. Unset
// files come back empty.
func (m *Match) AbilityMedia(a *roster.Ability) (image, background, sound string) {
	if a.Image != "" {
		image = m.Assets.AbilityImage(a.Image)
	}
	if a.Background != "" {
		background = m.Assets.AbilityImage(a.Background)
	}
	if a.Sound != "" {
		sound = m.Assets.Sound(a.Sound)
	}
	return image, background, sound
}

// BandsFromDefinition converts roster-file bands into combat bands, filling
// absent ends with the integer extremes.
func BandsFromDefinition(defs []roster.BandDef) []combat.Band {
	out := make([]combat.Band, len(defs))
	for i, d := range defs {
		lo, hi := d.Bounds()
		out[i] = combat.Band{Name: d.Name, Min: lo, Max: hi, Multiplier: d.Multiplier}
	}
	return out
}
