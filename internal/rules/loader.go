package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// fileRule is one rule as written in the TOML rule file
type fileRule struct {
	EventType  string            `toml:"event_type"`
	Name       string            `toml:"name"`
	Channel    string            `toml:"channel"`
	Template   string            `toml:"template"`
	Conditions map[string]string `toml:"conditions"`
}

type fileTable struct {
	Default *fileRule  `toml:"default"`
	Rules   []fileRule `toml:"rule"`
}

// Parse decodes a TOML rule table. The document needs a [default] section and
// any number of [[rule]] entries; rules keep their declaration order.
func Parse(data []byte) (*Table, error) {
	var ft fileTable
	md, err := toml.Decode(string(data), &ft)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rule table: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in rule table: %v", undecoded)
	}
	if ft.Default == nil {
		return nil, fmt.Errorf("rule table has no [default] rule")
	}

	entries := make([]Entry, 0, len(ft.Rules))
	for _, r := range ft.Rules {
		entries = append(entries, Entry{EventType: r.EventType, Rule: r.toDomain()})
	}

	sum := sha256.Sum256(data)
	return NewTable(hex.EncodeToString(sum[:8]), ft.Default.toDomain(), entries)
}

// LoadFile reads and parses a TOML rule file
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(data)
}

func (r fileRule) toDomain() domain.CampaignRule {
	return domain.CampaignRule{
		Name:       r.Name,
		Channel:    domain.Channel(r.Channel),
		Template:   r.Template,
		Conditions: r.Conditions,
	}
}
