package personalization

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Keys filled only from scorer output; event metadata cannot set them.
const (
	keyRecommendations = "recommendations"
	keyTopItem         = "top_item"
)

func isReservedKey(key string) bool {
	return key == keyRecommendations || key == keyTopItem
}

// Render replaces every {key} in template with values[key]. Unknown keys
// render as the empty string so a bad template never blocks dispatch.
func Render(template string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		return values[key]
	})
}

// DisplayName builds the customer-facing greeting name from an identifier
func DisplayName(customerID string) string {
	prefix := customerID
	if utf8.RuneCountInString(prefix) > 4 {
		prefix = string([]rune(prefix)[:4])
	}
	return "User_" + prefix
}

// LocalValues collects the substitutions available without a scorer: the
// display name, event identity fields and scalar metadata values.
// Recommendation keys are never taken from metadata.
func LocalValues(event domain.MarketingEvent) map[string]string {
	values := make(map[string]string, len(event.Metadata)+4)
	for k, v := range event.Metadata {
		if isReservedKey(k) {
			continue
		}
		if s, ok := scalarString(v); ok {
			values[k] = s
		}
	}

	values["name"] = DisplayName(event.CustomerID)
	values["customer_id"] = event.CustomerID
	values["platform"] = event.Platform
	values["event_type"] = event.EventType
	return values
}

// recommendationValues renders the scorer output as template values
func recommendationValues(items []string) map[string]string {
	if len(items) == 0 {
		return nil
	}
	return map[string]string{
		keyRecommendations: " Picked for you: " + strings.Join(items, ", "),
		keyTopItem:         items[0],
	}
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}
