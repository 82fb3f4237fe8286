// Package console drives a match from a line-oriented text terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/korodan/internal/game/command"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
	"github.com/cory-johannsen/korodan/internal/game/turn"
	"github.com/cory-johannsen/korodan/internal/match"
)

// Prompt ends every block of output.
const Prompt = "korodan> "

// maxListedCells caps how many cells a target preview prints.
const maxListedCells = 12

// Host reads commands and plays them against one match.
type Host struct {
	m        *match.Match
	registry *command.Registry
	colors   palette
	logger   *zap.Logger

	mu  sync.Mutex
	out *bufio.Writer

	// busy is held while a command line is handled.
	busy    sync.Mutex
	stopped bool
}

// NewHost creates a Host for m.
//
// Precondition: m must be non-nil and not yet driven by another host.
func NewHost(m *match.Match, color bool) *Host {
	return &Host{
		m:        m,
		registry: command.DefaultRegistry(),
		colors:   palette{enabled: color},
		logger:   m.Logger.Named("console"),
	}
}

// Run starts the match if needed and serves commands from in until quit,
// end of input or ctx is done.
//
// Postcondition: Returns nil on quit or end of input, ctx.Err() on
// cancellation, or a write error.
func (h *Host) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	h.mu.Lock()
	h.out = bufio.NewWriter(out)
	h.mu.Unlock()

	stop := h.m.Orchestrator.Subscribe(h.onEvent)
	defer stop()

	h.printf("%s\n", h.colors.Colorf(BrightWhite, "%s vs %s on %s. Type 'help' for commands.",
		h.teamName(roster.Left), h.teamName(roster.Right), h.m.Game.WallMap))
	if h.m.Orchestrator.CurrentState().Phase == turn.PhaseNotStarted {
		if err := h.m.Orchestrator.Start(); err != nil {
			return fmt.Errorf("starting match: %w", err)
		}
	}
	h.showStatus()
	if err := h.prompt(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := h.handleLine(scanner.Text())
		if done || err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// Stop waits for the command in progress, if any, and makes Run return
// without handling another line. The match is not touched after Stop returns.
func (h *Host) Stop() {
	h.busy.Lock()
	defer h.busy.Unlock()
	h.stopped = true
}

// handleLine runs one input line and reports whether the session is over.
func (h *Host) handleLine(line string) (done bool, err error) {
	h.busy.Lock()
	defer h.busy.Unlock()
	if h.stopped {
		return true, nil
	}

	parsed := command.Parse(line)
	if parsed.Command != "" {
		cmd, ok := h.registry.Resolve(parsed.Command)
		switch {
		case !ok:
			h.unknown(parsed.Command)
		case cmd.Handler == command.HandlerQuit:
			h.printf("%s\n", h.colors.Colorize(Cyan, "Goodbye."))
			return true, h.flush()
		default:
			h.logger.Debug("command", zap.String("handler", cmd.Handler), zap.Strings("args", parsed.Args))
			h.dispatch(cmd, parsed)
		}
	}
	return false, h.prompt()
}

func (h *Host) unknown(word string) {
	if names := h.registry.Suggest(word); len(names) > 0 {
		h.printf("%s\n", h.colors.Colorf(Dim, "Unknown command '%s'. Did you mean: %s?", word, strings.Join(names, ", ")))
		return
	}
	h.printf("%s\n", h.colors.Colorf(Dim, "Unknown command '%s'. Type 'help'.", word))
}

func (h *Host) dispatch(cmd *command.Command, p command.ParseResult) {
	o := h.m.Orchestrator
	var err error
	switch cmd.Handler {
	case command.HandlerStatus:
		h.showStatus()
	case command.HandlerChars:
		h.showCharacters()
	case command.HandlerAbilities:
		err = h.showAbilities()
	case command.HandlerHelp:
		h.showHelp()
	case command.HandlerShow:
		err = h.show(p.Arg(0))
	case command.HandlerSelect:
		err = h.selectCharacters(p.Args)
	case command.HandlerTargets:
		err = h.showTargets(p.Arg(0))
	case command.HandlerCancel:
		if err = o.CancelSelection(); err == nil {
			h.printf("Aim cancelled.\n")
		}
	case command.HandlerUse:
		err = h.use(p.Arg(0), p.Arg(1))
	case command.HandlerMove:
		err = h.move(p.Arg(0))
	case command.HandlerPass:
		var actor *roster.Character
		if actor, err = h.expected(); err == nil {
			_, err = o.SubmitPlay(turn.Pass(actor.ID))
		}
	}
	if err != nil {
		h.showError(err)
	}
}

func (h *Host) selectCharacters(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("usage: select <character> [character]")
	}
	ids := make([]roster.CharacterID, 0, len(names))
	for _, n := range names {
		c, err := h.character(n)
		if err != nil {
			return err
		}
		ids = append(ids, c.ID)
	}
	return h.m.Orchestrator.SelectCharacters(ids...)
}

func (h *Host) showTargets(key string) error {
	actor, err := h.expected()
	if err != nil {
		return err
	}
	ability, err := h.ability(key)
	if err != nil {
		return err
	}
	preview, err := h.m.Orchestrator.BeginSelection(actor.ID, ability.ID)
	if err != nil {
		return err
	}
	h.printf("%s aims %s.\n", actor.Name, ability.Name)
	if len(preview.Characters) == 0 && len(preview.Cells) == 0 {
		h.printf("  no legal targets\n")
		return nil
	}
	if len(preview.Characters) > 0 {
		names := make([]string, len(preview.Characters))
		for i, id := range preview.Characters {
			names[i] = h.m.Registry.Character(id).Name
		}
		h.printf("  characters: %s\n", strings.Join(names, ", "))
	}
	if n := len(preview.Cells); n > 0 {
		shown := preview.Cells
		if n > maxListedCells {
			shown = shown[:maxListedCells]
		}
		cells := make([]string, len(shown))
		for i, c := range shown {
			cells[i] = c.String()
		}
		more := ""
		if n > len(shown) {
			more = fmt.Sprintf(" and %d more", n-len(shown))
		}
		h.printf("  cells: %s%s\n", strings.Join(cells, " "), more)
	}
	return nil
}

func (h *Host) use(key, target string) error {
	actor, err := h.expected()
	if err != nil {
		return err
	}
	ability, err := h.ability(key)
	if err != nil {
		return err
	}
	t := targeting.NoTarget()
	switch {
	case target == "":
	case command.LooksLikeCell(target):
		cell, err := command.ParseCell(target)
		if err != nil {
			return err
		}
		t = targeting.AtCell(cell)
	default:
		c, err := h.character(target)
		if err != nil {
			return err
		}
		t = targeting.AtCharacter(c.ID)
	}
	_, err = h.m.Orchestrator.SubmitPlay(turn.UseAbility(actor.ID, ability.ID, t))
	return err
}

func (h *Host) move(arg string) error {
	actor, err := h.expected()
	if err != nil {
		return err
	}
	cell, err := command.ParseCell(arg)
	if err != nil {
		return err
	}
	_, err = h.m.Orchestrator.SubmitPlay(turn.MoveTo(actor.ID, cell))
	return err
}

func (h *Host) expected() (*roster.Character, error) {
	s := h.m.Orchestrator.CurrentState()
	if !s.HasExpected {
		return nil, targeting.Reject(turn.ErrWrongPhase, "no character is expected to play during %s", s.Phase)
	}
	return h.m.Registry.Character(s.Expected), nil
}

// character finds a character by name, ignoring case.
func (h *Host) character(name string) (*roster.Character, error) {
	for _, c := range h.m.Registry.Characters() {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no character named %q", name)
}

// ability finds an ability by key, ignoring case.
func (h *Host) ability(key string) (*roster.Ability, error) {
	if key == "" {
		return nil, fmt.Errorf("name an ability; 'abilities' lists them")
	}
	for _, a := range h.m.Registry.Abilities() {
		if strings.EqualFold(a.Key, key) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no ability %q", key)
}

func (h *Host) teamName(t roster.Team) string {
	if info, ok := h.m.Registry.Team(t); ok && info.Name != "" {
		return info.Name
	}
	return string(t)
}

func (h *Host) showError(err error) {
	if rej, ok := targeting.AsRejection(err); ok {
		h.printf("%s\n", h.colors.Colorf(Red, "Rejected (%s): %s", rej.Reason, rej.Detail))
		return
	}
	h.printf("%s\n", h.colors.Colorize(Red, err.Error()))
}

func (h *Host) printf(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, format, args...)
}

func (h *Host) prompt() error {
	h.printf("%s", h.colors.Colorize(BrightCyan, Prompt))
	return h.flush()
}

func (h *Host) flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.out.Flush()
}
