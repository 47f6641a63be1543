// Package assistant implements the rule-based repair-shop assistant.
// Free text is lowercased and tested against an ordered table of topic
// rules; the first rule with a trigger contained in the text supplies
// the reply. The table is rendered once when a Responder is built and is
// never modified afterwards, so a Responder is safe for concurrent use.
package assistant

import (
	"strings"
	"unicode"
)

// Business holds the contact details rendered into replies.
// ShortName is the brand used in conversational lines; it falls back to
// Name when empty.
type Business struct {
	Name      string
	ShortName string
	Phone     string
	Email     string
}

// DefaultBusiness returns the contact details used when none are configured.
func DefaultBusiness() Business {
	return Business{
		Name:      "Pro‑Tech Computer Repairs",
		ShortName: "Pro‑Tech",
		Phone:     "+263 71 769 2705",
		Email:     "shepherdmakasa06@gmail.com",
	}
}

// Result is the outcome of matching one message.
type Result struct {
	Category Category
	Reply    string
}

// Responder answers free-text questions from a fixed rule table.
type Responder struct {
	rules         []Rule
	greeting      Rule
	clarification string
	fallback      string
}

// NewResponder builds a Responder from the default rule table with the
// business details substituted into every response.
func NewResponder(biz Business) *Responder {
	if biz.ShortName == "" {
		biz.ShortName = biz.Name
	}
	r := strings.NewReplacer(
		placeholderName, biz.Name,
		placeholderShortName, biz.ShortName,
		placeholderPhone, biz.Phone,
		placeholderEmail, biz.Email,
	)

	rules := make([]Rule, 0, len(defaultRules))
	for _, rule := range defaultRules {
		rules = append(rules, render(rule, r))
	}

	return &Responder{
		rules:         rules,
		greeting:      render(greetingRule, r),
		clarification: r.Replace(clarificationResponse),
		fallback:      r.Replace(fallbackResponse),
	}
}

func render(rule Rule, r *strings.Replacer) Rule {
	triggers := make([]string, len(rule.Triggers))
	copy(triggers, rule.Triggers)
	return Rule{
		Category: rule.Category,
		Triggers: triggers,
		Response: r.Replace(rule.Response),
	}
}

// Classify returns the reply for a single message.
func (r *Responder) Classify(input string) string {
	return r.Match(input).Reply
}

// Match returns the reply for input together with the category it came from.
// Blank input short-circuits to the clarification prompt. Otherwise the
// topic rules are tried in order, then the greeting, then the fallback.
func (r *Responder) Match(input string) Result {
	if strings.TrimFunc(input, isBlank) == "" {
		return Result{Category: CategoryClarification, Reply: r.clarification}
	}

	normalized := strings.ToLower(input)

	for _, rule := range r.rules {
		if rule.matches(normalized) {
			return Result{Category: rule.Category, Reply: rule.Response}
		}
	}

	if r.greeting.matches(normalized) {
		return Result{Category: CategoryGreeting, Reply: r.greeting.Response}
	}

	return Result{Category: CategoryFallback, Reply: r.fallback}
}

// isBlank reports whitespace, counting a stray byte order mark as blank.
func isBlank(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Rules returns a copy of the topic rules in priority order.
// The greeting and fallback are not included.
func (r *Responder) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		triggers := make([]string, len(rule.Triggers))
		copy(triggers, rule.Triggers)
		out = append(out, Rule{Category: rule.Category, Triggers: triggers, Response: rule.Response})
	}
	return out
}

// Categories lists every category a Responder can return, in the order
// they are considered.
func (r *Responder) Categories() []Category {
	cats := []Category{CategoryClarification}
	for _, rule := range r.rules {
		cats = append(cats, rule.Category)
	}
	return append(cats, CategoryGreeting, CategoryFallback)
}

func (rule Rule) matches(normalized string) bool {
	for _, trigger := range rule.Triggers {
		if strings.Contains(normalized, trigger) {
			return true
		}
	}
	return false
}
