package core

import "wasteportal/pkg/domain"

// Route targets used by guard redirects.
const (
	PathLogin        = "/login"
	PathHome         = "/"
	PathResidentHome = "/dashboard/warga"
	PathAgencyHome   = "/dashboard/dlh"
)

// Outcome is the result kind of a guard evaluation.
type Outcome int

// Guard outcomes.
const (
	Authorized Outcome = iota
	Unauthenticated
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the guard verdict for one request. Location is empty when
// the request is authorized.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Guard decides access to role-restricted routes.
type Guard struct{}

// Evaluate decides whether user may enter a route requiring role. An empty
// required role admits any signed-in user. The decision is computed fresh
// on every call.
func (Guard) Evaluate(required domain.Role, user *domain.User) Decision {
	if user == nil {
		return Decision{Outcome: Unauthenticated, Location: PathLogin}
	}
	if required == "" || user.Role == required {
		return Decision{Outcome: Authorized}
	}
	return Decision{Outcome: Redirect, Location: HomeFor(user.Role)}
}

// HomeFor returns the dashboard route of role, or the landing page for
// unknown roles.
func HomeFor(role domain.Role) string {
	switch role {
	case domain.RoleResident:
		return PathResidentHome
	case domain.RoleAgency:
		return PathAgencyHome
	}
	return PathHome
}
