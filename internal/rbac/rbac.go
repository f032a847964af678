// Package rbac maps user roles onto permissions for the HTTP surface.
package rbac

import (
	"context"
	"strings"
)

// RolePermissions is the default policy. Admins hold everything, including
// connection management; teachers own quizzes and grading; students attempt
// and review.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:list",
		"quiz:view",
		"attempt:start",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"connections:view",
	},
	"teacher": {
		"quiz:create",
		"quiz:update",
		"quiz:publish",
		"quiz:delete",
		"quiz:list",
		"quiz:view",
		"quiz:export",
		"grading:*",
		"attempt:view-all",
		"connections:view",
		"activity:view",
		"users:list",
		"ai:generate",
	},
	"admin": {
		"*",
	},
}

type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	perms, ok := c.RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if matchPerm(p, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
