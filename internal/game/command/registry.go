package command

import (
	"fmt"
	"sort"
	"strings"
)

// Section is one titled group of commands in console help.
type Section struct {
	Category string
	Title    string
	Commands []*Command
}

// sectionTitles fixes the order and titles of help sections.
var sectionTitles = []struct{ category, title string }{
	{CategoryPlay, "Play"},
	{CategoryInfo, "Info"},
	{CategorySystem, "System"},
}

// Registry resolves console input to skirmish commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]string
}

// NewRegistry indexes cmds by name and alias.
//
// Precondition: every command has a name, a handler and a known category; no
// name or alias is used twice.
// Postcondition: Returns a Registry, or an error naming the first violation.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}
	taken := func(word string) bool {
		_, isName := r.commands[word]
		_, isAlias := r.aliases[word]
		return isName || isAlias
	}

	for i := range cmds {
		cmd := &cmds[i]
		switch {
		case cmd.Name == "" || cmd.Handler == "":
			return nil, fmt.Errorf("command %q needs a name and a handler", cmd.Name)
		case !knownCategory(cmd.Category):
			return nil, fmt.Errorf("command %q: unknown category %q", cmd.Name, cmd.Category)
		case taken(cmd.Name):
			return nil, fmt.Errorf("duplicate command name: %q", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			if taken(alias) {
				return nil, fmt.Errorf("duplicate alias %q on %q", alias, cmd.Name)
			}
			r.aliases[alias] = cmd.Name
		}
	}
	return r, nil
}

func knownCategory(c string) bool {
	for _, s := range sectionTitles {
		if s.category == c {
			return true
		}
	}
	return false
}

// DefaultRegistry returns the registry of BuiltinCommands. It panics if the
// built-in table is inconsistent.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve finds the command for a lowercased command word, by name or alias.
func (r *Registry) Resolve(word string) (*Command, bool) {
	if name, ok := r.aliases[word]; ok {
		word = name
	}
	cmd, ok := r.commands[word]
	return cmd, ok
}

// Suggest returns the names of commands whose name or an alias starts with
// prefix, sorted. An empty prefix suggests nothing.
func (r *Registry) Suggest(prefix string) []string {
	if prefix == "" {
		return nil
	}
	seen := make(map[string]bool)
	for name := range r.commands {
		if strings.HasPrefix(name, prefix) {
			seen[name] = true
		}
	}
	for alias, name := range r.aliases {
		if strings.HasPrefix(alias, prefix) {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Commands returns every command sorted by name.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Sections groups the commands for help: play first, then info, then
// system, each sorted by name. Empty sections are left out.
func (r *Registry) Sections() []Section {
	byCategory := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		byCategory[cmd.Category] = append(byCategory[cmd.Category], cmd)
	}
	var out []Section
	for _, s := range sectionTitles {
		if cmds := byCategory[s.category]; len(cmds) > 0 {
			out = append(out, Section{Category: s.category, Title: s.title, Commands: cmds})
		}
	}
	return out
}
