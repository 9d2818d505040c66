package grammar

import (
	"fmt"
	"strings"

	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/parser/lexer"
)

// Rule is one node of a rule graph. An immutable rule matches its pattern
// literally (ignoring case); a mutable rule stands for a user-supplied
// name or value and matches any token.
type Rule struct {
	ID       int
	Pattern  string
	Mutable  bool
	Children []int
}

// Match pairs a token with the rule it was accepted by, -1 when no rule
// accepted it.
type Match struct {
	Token string
	Rule  int
}

// RuleGraph is a directed graph of grammar rules. Rule 0 is the entry.
// Statements may end at a terminal rule or at any rule that has a terminal
// rule among its children.
type RuleGraph struct {
	name     string
	rules    []Rule
	terminal map[int]bool
}

func NewRuleGraph(name string) *RuleGraph {
	return &RuleGraph{name: name, terminal: make(map[int]bool)}
}

func (g *RuleGraph) Name() string {
	return g.name
}

// AddRule appends a rule. IDs must be added in order starting at 0.
func (g *RuleGraph) AddRule(pattern string, mutable bool, id int) {
	if id != len(g.rules) {
		panic(fmt.Sprintf("grammar %s: rule %d added out of order (next is %d)", g.name, id, len(g.rules)))
	}
	g.rules = append(g.rules, Rule{ID: id, Pattern: pattern, Mutable: mutable})
}

func (g *RuleGraph) SetChildren(id int, children ...int) {
	cp := make([]int, len(children))
	copy(cp, children)
	g.rules[id].Children = cp
}

// SetTerminal marks id as a rule a statement may end on.
func (g *RuleGraph) SetTerminal(id int) {
	g.terminal[id] = true
}

// Rule returns the pattern of the rule with the given id.
func (g *RuleGraph) Rule(id int) string {
	if id < 0 || id >= len(g.rules) {
		return ""
	}
	return g.rules[id].Pattern
}

func (g *RuleGraph) IsMutable(id int) bool {
	return id >= 0 && id < len(g.rules) && g.rules[id].Mutable
}

// step picks the child of from accepting token: an immutable literal match
// first, otherwise the last mutable child. from == -1 is the virtual root.
func (g *RuleGraph) step(from int, token string) (int, bool) {
	var children []int
	if from < 0 {
		children = []int{0}
	} else {
		children = g.rules[from].Children
	}

	mutable := -1
	for _, c := range children {
		r := &g.rules[c]
		if r.Mutable {
			mutable = c
			continue
		}
		if strings.EqualFold(r.Pattern, token) {
			return c, true
		}
	}
	if mutable >= 0 {
		return mutable, true
	}
	return from, false
}

// Match walks the graph and reports the rule each token was accepted by.
// Unaccepted tokens get -1 and leave the position unchanged.
func (g *RuleGraph) Match(tokens []string) []Match {
	out := make([]Match, len(tokens))
	pos := -1
	for i, tok := range tokens {
		next, ok := g.step(pos, tok)
		if !ok {
			out[i] = Match{Token: tok, Rule: -1}
			continue
		}
		pos = next
		out[i] = Match{Token: tok, Rule: pos}
	}
	return out
}

func (g *RuleGraph) expected(from int) []string {
	if from < 0 {
		return []string{g.rules[0].Pattern}
	}
	var out []string
	for _, c := range g.rules[from].Children {
		out = append(out, g.rules[c].Pattern)
	}
	return out
}

func (g *RuleGraph) canEnd(pos int) bool {
	if pos < 0 {
		return false
	}
	if g.terminal[pos] {
		return true
	}
	for _, c := range g.rules[pos].Children {
		if g.terminal[c] {
			return true
		}
	}
	return false
}

// IsSyntacticallyCorrect returns nil when tokens form a complete statement,
// otherwise a *errors.QueryError naming the offending token and the
// expected alternatives.
func (g *RuleGraph) IsSyntacticallyCorrect(tokens []string) error {
	pos := -1
	for i, tok := range tokens {
		if pos >= 0 && g.terminal[pos] {
			return &errors.QueryError{Clause: "syntax", Token: tok, Reason: "tokens after end of statement"}
		}
		next, ok := g.step(pos, tok)
		if !ok {
			return &errors.QueryError{
				Clause: "syntax",
				Token:  tok,
				Reason: fmt.Sprintf("token %d: expected %s", i+1, quoteAll(g.expected(pos))),
			}
		}
		pos = next
	}
	if !g.canEnd(pos) {
		last := ""
		if len(tokens) > 0 {
			last = tokens[len(tokens)-1]
		}
		return &errors.QueryError{
			Clause: "syntax",
			Token:  last,
			Reason: fmt.Sprintf("unexpected end of statement, expected %s", quoteAll(g.expected(pos))),
		}
	}
	return nil
}

// TokensAt returns, in input order, the tokens accepted by any of ids.
func (g *RuleGraph) TokensAt(tokens []string, ids ...int) []string {
	var out []string
	for _, m := range g.Match(tokens) {
		if containsID(ids, m.Rule) {
			out = append(out, m.Token)
		}
	}
	return out
}

// HasDuplicatesAt reports the first token accepted by ids more than once.
func (g *RuleGraph) HasDuplicatesAt(tokens []string, ids ...int) (string, bool) {
	seen := make(map[string]bool)
	for _, tok := range g.TokensAt(tokens, ids...) {
		key := strings.ToUpper(tok)
		if seen[key] {
			return tok, true
		}
		seen[key] = true
	}
	return "", false
}

// IllegalKeyword reports a reserved word used where a name or value is
// expected.
func (g *RuleGraph) IllegalKeyword(tokens []string) (string, bool) {
	for _, m := range g.Match(tokens) {
		if g.IsMutable(m.Rule) && isReserved(m.Token) {
			return m.Token, true
		}
	}
	return "", false
}

func isReserved(token string) bool {
	if lexer.IsKeyword(token) {
		return true
	}
	switch token {
	case "*", ",", "(", ")", ";", "=", "!=", "<", ">", "<=", ">=", `"`:
		return true
	}
	return false
}

func containsID(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func quoteAll(patterns []string) string {
	q := make([]string, len(patterns))
	for i, p := range patterns {
		q[i] = fmt.Sprintf("%q", p)
	}
	return strings.Join(q, ", ")
}
