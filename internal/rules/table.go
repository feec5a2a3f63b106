package rules

import (
	"fmt"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// Entry binds a campaign rule to an event category
type Entry struct {
	EventType string
	Rule      domain.CampaignRule
}

// Table is an immutable snapshot of the campaign rules. It is built once and
// only ever replaced as a whole, so lookups need no locking.
type Table struct {
	byType      map[string][]domain.CampaignRule
	defaultRule domain.CampaignRule
	version     string
}

// NewTable builds a table from entries in declaration order
func NewTable(version string, defaultRule domain.CampaignRule, entries []Entry) (*Table, error) {
	if err := validateRule(domain.DefaultRuleKey, defaultRule); err != nil {
		return nil, err
	}

	t := &Table{
		byType:      make(map[string][]domain.CampaignRule, len(entries)),
		defaultRule: copyRule(defaultRule),
		version:     version,
	}

	for _, e := range entries {
		if e.EventType == "" || e.EventType == domain.DefaultRuleKey {
			return nil, fmt.Errorf("rule %q: invalid event type %q", e.Rule.Name, e.EventType)
		}
		if err := validateRule(e.EventType, e.Rule); err != nil {
			return nil, err
		}
		t.byType[e.EventType] = append(t.byType[e.EventType], copyRule(e.Rule))
	}

	return t, nil
}

// Version identifies the snapshot
func (t *Table) Version() string {
	return t.version
}

// Default returns the fallback rule
func (t *Table) Default() domain.CampaignRule {
	return t.defaultRule
}

// Len returns the number of non-default rules
func (t *Table) Len() int {
	n := 0
	for _, rs := range t.byType {
		n += len(rs)
	}
	return n
}

// Match returns the first declared rule for eventType, or the default rule.
// Matching is exact on the key; it never fails.
func (t *Table) Match(eventType string) domain.CampaignRule {
	rs, ok := t.byType[eventType]
	if !ok || len(rs) == 0 {
		return t.defaultRule
	}
	return rs[0]
}

// MatchEvent picks the most specific rule whose conditions all hold for the
// event. Specificity is the number of conditions; ties go to the rule declared
// first, and the default rule ranks below every category rule.
func (t *Table) MatchEvent(event domain.MarketingEvent) domain.CampaignRule {
	best := -1
	var chosen domain.CampaignRule

	for _, r := range t.byType[event.EventType] {
		if !conditionsHold(r.Conditions, event) {
			continue
		}
		if len(r.Conditions) > best {
			best = len(r.Conditions)
			chosen = r
		}
	}

	if best < 0 {
		return t.defaultRule
	}
	return chosen
}

func conditionsHold(conds map[string]string, event domain.MarketingEvent) bool {
	for key, want := range conds {
		var got string
		if key == "platform" {
			got = event.Platform
		} else {
			v, ok := event.Metadata[key]
			if !ok {
				return false
			}
			got = fmt.Sprint(v)
		}
		if got != want {
			return false
		}
	}
	return true
}

func validateRule(key string, r domain.CampaignRule) error {
	if r.Name == "" {
		return fmt.Errorf("rule %q: name is required", key)
	}
	if r.Channel == "" {
		return fmt.Errorf("rule %q: channel is required", key)
	}
	return nil
}

func copyRule(r domain.CampaignRule) domain.CampaignRule {
	if r.Conditions == nil {
		return r
	}
	conds := make(map[string]string, len(r.Conditions))
	for k, v := range r.Conditions {
		conds[k] = v
	}
	r.Conditions = conds
	return r
}
