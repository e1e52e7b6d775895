package middleware

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/metrics"
	"anoa.com/jobapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type access int

const (
	accessAuthenticated access = iota
	accessPublic
	accessRole
)

// Rule grants access to every path at or below Prefix.
type Rule struct {
	Prefix string
	access access
	role   entity.Role
}

func Public(prefix string) Rule {
	return Rule{Prefix: prefix, access: accessPublic}
}

func Authenticated(prefix string) Rule {
	return Rule{Prefix: prefix, access: accessAuthenticated}
}

func RequireRole(prefix string, role entity.Role) Rule {
	return Rule{Prefix: prefix, access: accessRole, role: role}
}

// Policy maps request paths to the access they require. The most specific
// prefix wins; paths matching no rule need an authenticated caller.
type Policy struct {
	rules   []Rule
	metrics *metrics.Metrics
}

func NewPolicy(m *metrics.Metrics, rules ...Rule) *Policy {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Policy{rules: sorted, metrics: m}
}

// Decide returns nil when the identity may reach p, ErrUnauthorized when a
// login is required and ErrForbidden when the role does not match.
func (p *Policy) Decide(requestPath string, identity *auth.Identity) error {
	rule := p.match(path.Clean("/" + requestPath))

	switch rule.access {
	case accessPublic:
		return nil
	case accessRole:
		if identity == nil {
			return fmt.Errorf("authentication required: %w", apperror.ErrUnauthorized)
		}
		if !identity.HasRole(rule.role) {
			return fmt.Errorf("%s role required: %w", strings.ToLower(rule.role.String()), apperror.ErrForbidden)
		}
		return nil
	default:
		if identity == nil {
			return fmt.Errorf("authentication required: %w", apperror.ErrUnauthorized)
		}
		return nil
	}
}

func (p *Policy) match(requestPath string) Rule {
	for _, rule := range p.rules {
		if requestPath == rule.Prefix || strings.HasPrefix(requestPath, strings.TrimSuffix(rule.Prefix, "/")+"/") {
			return rule
		}
	}
	return Rule{access: accessAuthenticated}
}

// Authorize enforces the policy before the route handler runs.
func (p *Policy) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := response.GetIdentity(c)

		if err := p.Decide(c.Request.URL.Path, identity); err != nil {
			p.record(err)
			response.ResponseError(c, err)
			return
		}

		p.record(nil)
		c.Next()
	}
}

func (p *Policy) record(err error) {
	if p.metrics == nil {
		return
	}
	decision := "allowed"
	if err != nil {
		decision = "denied"
	}
	p.metrics.AccessDecisions.WithLabelValues(decision).Inc()
}
