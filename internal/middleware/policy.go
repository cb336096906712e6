package middleware

import (
	"fmt"
	"sort"
	"strings"
)

// Rule maps a protected path prefix to the roles allowed through it. An
// empty role set means any authenticated identity suffices.
type Rule struct {
	Prefix string
	Roles  []string
}

// Allows reports whether the role satisfies the rule.
func (r Rule) Allows(role string) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if role == allowed {
			return true
		}
	}
	return false
}

// AccessPolicy is an ordered list of rules evaluated by longest-prefix
// match. Paths matching no rule are public.
type AccessPolicy struct {
	rules []Rule
}

// NewAccessPolicy builds a policy from the set of protected prefixes and the
// explicit role rules for a subset of them. Prefixes listed only in
// protectedPrefixes require authentication but no particular role.
func NewAccessPolicy(protectedPrefixes []string, roleRules []Rule) *AccessPolicy {
	byPrefix := make(map[string]Rule, len(protectedPrefixes)+len(roleRules))
	for _, prefix := range protectedPrefixes {
		prefix = normalizePrefix(prefix)
		if prefix == "" {
			continue
		}
		byPrefix[prefix] = Rule{Prefix: prefix}
	}
	for _, rule := range roleRules {
		rule.Prefix = normalizePrefix(rule.Prefix)
		if rule.Prefix == "" {
			continue
		}
		byPrefix[rule.Prefix] = rule
	}

	rules := make([]Rule, 0, len(byPrefix))
	for _, rule := range byPrefix {
		rules = append(rules, rule)
	}

	// Longest prefix first, so Match can return the first hit.
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].Prefix) != len(rules[j].Prefix) {
			return len(rules[i].Prefix) > len(rules[j].Prefix)
		}
		return rules[i].Prefix < rules[j].Prefix
	})

	return &AccessPolicy{rules: rules}
}

// Match returns the rule governing a request path, or false when the path is
// public. A prefix matches at path segment boundaries only, so /add-ons does
// not govern /add-onsx.
func (p *AccessPolicy) Match(path string) (Rule, bool) {
	for _, rule := range p.rules {
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule, true
		}
	}
	return Rule{}, false
}

// ParseRoleRules parses the configuration form
// "/prefix=role|role,/prefix=role" into rules.
func ParseRoleRules(s string) ([]Rule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var rules []Rule
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		prefix, roleList, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("invalid role rule %q: missing '='", entry)
		}

		var roles []string
		for _, role := range strings.Split(roleList, "|") {
			role = strings.TrimSpace(role)
			if role != "" {
				roles = append(roles, role)
			}
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("invalid role rule %q: no roles", entry)
		}

		rules = append(rules, Rule{
			Prefix: strings.TrimSpace(prefix),
			Roles:  roles,
		})
	}

	return rules, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}
