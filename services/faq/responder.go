// Package faq answers seller questions from a fixed keyword table.
package faq

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule maps a set of keywords to one canned reply
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// RuleSet is the full responder table. Rules are matched in order.
type RuleSet struct {
	EmptyReply    string `yaml:"empty_reply"`
	FallbackReply string `yaml:"fallback_reply"`
	Rules         []Rule `yaml:"rules"`
}

// Message is one chat turn. A bare JSON string decodes as a user message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		m.Role = "user"
		m.Content = text
		return nil
	}
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	return nil
}

// ParseRules decodes and checks a YAML rule table
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse FAQ rules: %w", err)
	}
	if rs.EmptyReply == "" || rs.FallbackReply == "" {
		return nil, errors.New("FAQ rules need empty_reply and fallback_reply")
	}
	for i, r := range rs.Rules {
		if len(r.Keywords) == 0 || r.Reply == "" {
			return nil, fmt.Errorf("FAQ rule %d needs keywords and a reply", i+1)
		}
		for j, k := range r.Keywords {
			rs.Rules[i].Keywords[j] = strings.ToLower(k)
		}
	}
	return &rs, nil
}

// LoadRules reads the table at path, or the built-in table when path is empty
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return ParseRules(defaultRules)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read FAQ rules: %w", err)
	}
	return ParseRules(data)
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// Responder is stateless; every call looks only at the latest user message
type Responder struct {
	rules *RuleSet
}

func NewResponder(rules *RuleSet) *Responder {
	return &Responder{rules: rules}
}

// Respond returns the reply for the conversation so far
func (r *Responder) Respond(messages []Message) string {
	text := strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(latestUserText(messages)), " "))
	if text == "" {
		return r.rules.EmptyReply
	}

	// Keywords match anywhere in the text. Words are separated by single
	// spaces, so a keyword written as " hi " only matches the whole word.
	padded := " " + text + " "
	for _, rule := range r.rules.Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(padded, keyword) {
				return rule.Reply
			}
		}
	}
	return r.rules.FallbackReply
}

func latestUserText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		role := strings.ToLower(messages[i].Role)
		if role == "" || role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
