package security

import (
	"fmt"
	"strings"
)

// Role is the access level of a signed-in user
type Role string

const (
	RoleLearner Role = "learner"
	RoleCoach   Role = "coach"
)

// RoleMap assigns roles by email address. Unlisted users are learners.
type RoleMap struct {
	roles map[string]Role
}

// ParseRoleMap reads "email=role" pairs separated by commas, plus a list of
// coach emails. Emails compare case-insensitively.
func ParseRoleMap(spec string, coachEmails []string) (*RoleMap, error) {
	m := &RoleMap{roles: make(map[string]Role)}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, role, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid role map entry %q", pair)
		}
		r := Role(strings.ToLower(strings.TrimSpace(role)))
		if r != RoleLearner && r != RoleCoach {
			return nil, fmt.Errorf("invalid role map entry %q", pair)
		}
		m.roles[normalizeEmail(email)] = r
	}
	for _, email := range coachEmails {
		if email = normalizeEmail(email); email != "" {
			m.roles[email] = RoleCoach
		}
	}
	return m, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleFor returns the role of an email address
func (m *RoleMap) RoleFor(email string) Role {
	if m == nil {
		return RoleLearner
	}
	if r, ok := m.roles[normalizeEmail(email)]; ok {
		return r
	}
	return RoleLearner
}

// IsCoach reports whether email has the coach role
func (m *RoleMap) IsCoach(email string) bool {
	return m.RoleFor(email) == RoleCoach
}
