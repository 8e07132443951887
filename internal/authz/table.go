package authz

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"

	"careergate/internal/roles"
)

// Capability names a guarded view or endpoint.
type Capability string

const (
	CapabilityAdminDashboard Capability = "admin.dashboard"
	CapabilityAdminAPI       Capability = "admin.api"
	CapabilityImpersonate    Capability = "admin.impersonate"
	CapabilityAdminAudit     Capability = "admin.audit"
	CapabilityDashboard      Capability = "career.dashboard"
	CapabilityGenerate       Capability = "career.generate"
	CapabilityHistory        Capability = "career.history"
)

// knownCapabilities are the capabilities routes are guarded with. Wildcard
// policy rules only ever grant members of this list.
var knownCapabilities = []Capability{
	CapabilityAdminDashboard,
	CapabilityAdminAPI,
	CapabilityImpersonate,
	CapabilityAdminAudit,
	CapabilityDashboard,
	CapabilityGenerate,
	CapabilityHistory,
}

//go:embed model.conf
var modelConf string

//go:embed policy.csv
var defaultPolicy string

// Table maps capabilities to the roles allowed to use them. The policy is
// loaded into a casbin enforcer once and never mutated afterwards. Every
// requirement handed out asks the enforcer again on each check.
type Table struct {
	enforcer     *casbin.SyncedEnforcer
	requirements map[Capability]Requirement
}

// NewTable builds the table from the embedded policy.
func NewTable() (*Table, error) {
	return NewTableFromPolicy(defaultPolicy)
}

// NewTableFromPolicy builds a table from "p, <role>, <capability>" lines.
// A capability ending in ".*" covers the known capabilities with that prefix.
func NewTableFromPolicy(policy string) (*Table, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	rules, err := parsePolicy(policy)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("load policy rules: %w", err)
		}
	}

	t := &Table{enforcer: enforcer, requirements: make(map[Capability]Requirement)}
	for _, capability := range coveredCapabilities(rules) {
		var allowed []roles.Role
		for _, role := range roles.All() {
			ok, err := enforcer.Enforce(string(role), string(capability))
			if err != nil {
				return nil, fmt.Errorf("evaluate %s for %s: %w", capability, role, err)
			}
			if ok {
				allowed = append(allowed, role)
			}
		}
		t.requirements[capability] = Requirement{allowed: allowed, enforce: t.enforceFor(capability)}
	}
	return t, nil
}

func (t *Table) enforceFor(c Capability) func(roles.Role) (bool, error) {
	return func(role roles.Role) (bool, error) {
		if role == "" {
			return false, nil
		}
		return t.enforcer.Enforce(string(role), string(c))
	}
}

// Requirement returns the requirement for a capability. Unknown capabilities
// report false and callers must fail closed.
func (t *Table) Requirement(c Capability) (Requirement, bool) {
	req, ok := t.requirements[c]
	return req, ok
}

func (t *Table) Capabilities() []Capability {
	out := make([]Capability, 0, len(t.requirements))
	for c := range t.requirements {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func parsePolicy(policy string) ([][]string, error) {
	var rules [][]string
	for n, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) != 3 || fields[0] != "p" {
			return nil, fmt.Errorf("policy line %d: want \"p, role, capability\"", n+1)
		}
		if _, ok := roles.ParseRole(fields[1]); !ok {
			return nil, fmt.Errorf("policy line %d: unknown role %q", n+1, fields[1])
		}
		if obj := fields[2]; strings.Contains(strings.TrimSuffix(obj, ".*"), "*") || obj == ".*" {
			return nil, fmt.Errorf("policy line %d: wildcard only allowed as a trailing \".*\"", n+1)
		}
		rules = append(rules, fields[1:])
	}
	return rules, nil
}

// coveredCapabilities lists the capabilities named by rules, expanding
// wildcards against knownCapabilities.
func coveredCapabilities(rules [][]string) []Capability {
	var out []Capability
	add := func(c Capability) {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	for _, rule := range rules {
		obj := rule[1]
		if !strings.HasSuffix(obj, ".*") {
			add(Capability(obj))
			continue
		}
		for _, c := range knownCapabilities {
			if util.KeyMatch(string(c), obj) {
				add(c)
			}
		}
	}
	return out
}
