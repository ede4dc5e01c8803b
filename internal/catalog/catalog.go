package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sahilm/fuzzy"

	"sysdeck/internal/config"
)

// Tool is one entry in the maintenance-tool catalog: an external interactive
// program the dashboard can hand the terminal to.
type Tool struct {
	Name        string   `toml:"name" json:"name"`
	Command     string   `toml:"command" json:"command"`
	Args        []string `toml:"args,omitempty" json:"args,omitempty"`
	Category    string   `toml:"category" json:"category"`
	Destructive bool     `toml:"destructive,omitempty" json:"destructive,omitempty"`
	// Description is markdown, rendered in the detail pane.
	Description string `toml:"description,omitempty" json:"description,omitempty"`
}

// Catalog is the full tool list.
// Path: <user config dir>/sysdeck/tools.toml
type Catalog struct {
	Tools []Tool `toml:"tools" json:"tools"`
}

// Default returns the built-in catalog, used whenever no tools.toml exists.
func Default() Catalog {
	return Catalog{Tools: []Tool{
		{
			Name:        "cfdisk",
			Command:     "cfdisk",
			Category:    "disk",
			Destructive: true,
			Description: "Curses-based **partition editor**. Changes are only written when you select `Write`.",
		},
		{
			Name:        "fdisk",
			Command:     "fdisk",
			Args:        []string{"-l"},
			Category:    "disk",
			Description: "List partition tables of all block devices.",
		},
		{
			Name:        "gdisk",
			Command:     "gdisk",
			Category:    "disk",
			Destructive: true,
			Description: "Interactive **GPT** partition editor.",
		},
		{
			Name:        "htop",
			Command:     "htop",
			Category:    "system",
			Description: "Interactive process viewer.",
		},
		{
			Name:        "journalctl",
			Command:     "journalctl",
			Args:        []string{"-xe"},
			Category:    "system",
			Description: "Jump to the end of the systemd journal with explanations.",
		},
		{
			Name:        "passwd",
			Command:     "passwd",
			Category:    "user",
			Destructive: true,
			Description: "Change the password of the current user.",
		},
		{
			Name:        "nmtui",
			Command:     "nmtui",
			Category:    "network",
			Description: "NetworkManager text UI for connections and Wi-Fi.",
		},
		{
			Name:        "shell",
			Command:     "bash",
			Category:    "system",
			Description: "Drop into a plain shell for anything the menu does not cover.",
		},
	}}
}

// Load reads the catalog from the user config dir. A missing file yields the
// built-in default with no error; a malformed file yields the default plus
// the parse error so callers can warn and keep going.
func Load() (Catalog, error) {
	p, err := config.CatalogPath()
	if err != nil {
		return Default(), err
	}
	return LoadFile(p)
}

// LoadFile reads and normalizes a catalog from an explicit path.
func LoadFile(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := toml.Unmarshal(b, &c); err != nil {
		return Default(), fmt.Errorf("parse catalog: %w", err)
	}
	c.normalize()
	if len(c.Tools) == 0 {
		return Default(), nil
	}
	return c, nil
}

// normalize trims fields, drops entries with no name or command, removes
// duplicates by name, and orders by category then name.
func (c *Catalog) normalize() {
	seen := map[string]bool{}
	out := c.Tools[:0]
	for _, t := range c.Tools {
		t.Name = strings.TrimSpace(t.Name)
		t.Command = strings.TrimSpace(t.Command)
		t.Category = strings.TrimSpace(t.Category)
		if t.Category == "" {
			t.Category = "system"
		}
		if t.Name == "" || t.Command == "" || seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	c.Tools = out
	sort.SliceStable(c.Tools, func(i, j int) bool {
		if c.Tools[i].Category != c.Tools[j].Category {
			return c.Tools[i].Category < c.Tools[j].Category
		}
		return c.Tools[i].Name < c.Tools[j].Name
	})
}

// Validate reports the first structural problem in the catalog, or nil.
func (c Catalog) Validate() error {
	if len(c.Tools) == 0 {
		return fmt.Errorf("catalog has no tools")
	}
	seen := map[string]bool{}
	for i, t := range c.Tools {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("tool %d: missing name", i)
		}
		if strings.TrimSpace(t.Command) == "" {
			return fmt.Errorf("tool %q: missing command", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("tool %q: duplicate name", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Find returns the tool with the given name.
func (c Catalog) Find(name string) (Tool, bool) {
	for _, t := range c.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Categories returns the distinct categories in display order.
func (c Catalog) Categories() []string {
	var out []string
	last := ""
	for _, t := range c.Tools {
		if t.Category != last {
			out = append(out, t.Category)
			last = t.Category
		}
	}
	return out
}

// toolSource adapts the tool list to fuzzy matching over "name category".
type toolSource []Tool

func (s toolSource) String(i int) string { return s[i].Name + " " + s[i].Category }
func (s toolSource) Len() int            { return len(s) }

// Filter returns the tools fuzzy-matching query, best match first. An empty
// query returns the whole catalog in its stored order.
func (c Catalog) Filter(query string) []Tool {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.Tools
	}
	matches := fuzzy.FindFrom(query, toolSource(c.Tools))
	out := make([]Tool, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.Tools[m.Index])
	}
	return out
}
