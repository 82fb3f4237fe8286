// Package command provides the console command registry, parser and the
// built-in skirmish commands.
package command

// Categories for organizing commands.
const (
	CategoryPlay   = "play"
	CategoryInfo   = "info"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to console actions.
const (
	HandlerStatus    = "status"
	HandlerChars     = "chars"
	HandlerAbilities = "abilities"
	HandlerSelect    = "select"
	HandlerTargets   = "targets"
	HandlerShow      = "show"
	HandlerCancel    = "cancel"
	HandlerUse       = "use"
	HandlerMove      = "move"
	HandlerPass      = "pass"
	HandlerHelp      = "help"
	HandlerQuit      = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the arguments, e.g. "use <ability> [target]".
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command for help output.
	Category string
	// Handler names the console action.
	Handler string
}

// BuiltinCommands returns every console command.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "status", Aliases: []string{"st"}, Usage: "status", Help: "Show phase, round, turn and who plays", Category: CategoryInfo, Handler: HandlerStatus},
		{Name: "chars", Aliases: []string{"c", "roster"}, Usage: "chars", Help: "List characters with position, AP and vitality", Category: CategoryInfo, Handler: HandlerChars},
		{Name: "abilities", Aliases: []string{"ab"}, Usage: "abilities", Help: "List the abilities the expected character can use now", Category: CategoryInfo, Handler: HandlerAbilities},
		{Name: "show", Aliases: []string{"inspect"}, Usage: "show <character | ability>", Help: "Describe a character or ability with its asset files", Category: CategoryInfo, Handler: HandlerShow},
		{Name: "targets", Aliases: []string{"aim"}, Usage: "targets <ability>", Help: "Start aiming an ability and list its legal targets", Category: CategoryInfo, Handler: HandlerTargets},

		{Name: "select", Aliases: []string{"sel"}, Usage: "select <character> [character]", Help: "Choose the characters for the next turn", Category: CategoryPlay, Handler: HandlerSelect},
		{Name: "use", Aliases: []string{"u"}, Usage: "use <ability> [character | col,row]", Help: "Use an ability on a character or cell", Category: CategoryPlay, Handler: HandlerUse},
		{Name: "move", Aliases: []string{"mv"}, Usage: "move <col,row>", Help: "Walk to a cell, paying AP per step", Category: CategoryPlay, Handler: HandlerMove},
		{Name: "pass", Aliases: []string{"p"}, Usage: "pass", Help: "Give up the remaining AP this round", Category: CategoryPlay, Handler: HandlerPass},
		{Name: "cancel", Aliases: nil, Usage: "cancel", Help: "Stop aiming the current ability", Category: CategoryPlay, Handler: HandlerCancel},

		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "Leave the match", Category: CategorySystem, Handler: HandlerQuit},
	}
}
