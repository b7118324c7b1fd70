// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/aniresolve/aniresolve/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns every supported icons variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

// Get renders d in the configured variant. Unknown variants render nothing.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Icon identifies a registered symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Link
	Blocked
	Rotate
	Skipped
)

var icons = map[Icon]*iconDef{
	Success:  {emoji: "🎉", nerd: "", plain: "+", squares: "▣"},
	Fail:     {emoji: "💀", nerd: "", plain: "x", squares: "▨"},
	Progress: {emoji: "⏳", nerd: "", plain: "~", squares: "▧"},
	Link:     {emoji: "🔗", nerd: "", plain: ">", squares: "▶"},
	Blocked:  {emoji: "🚧", nerd: "", plain: "!", squares: "▩"},
	Rotate:   {emoji: "🧅", nerd: "", plain: "@", squares: "◈"},
	Skipped:  {emoji: "⏭", nerd: "", plain: "-", squares: "□"},
}

// Get returns the rendered symbol for i.
func Get(i Icon) string {
	return icons[i].Get()
}
