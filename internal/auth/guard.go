package auth

import "github.com/scrob-fm/scrob/internal/models"

// Requirement is the privilege an operation demands from a resolved identity.
type Requirement struct {
	kind   requirementKind
	target int64
}

type requirementKind int

const (
	anyAuthenticated requirementKind = iota
	resourceOwner
	adminOnly
	adminNotSelf
)

// AnyAuthenticated passes for every resolved identity.
func AnyAuthenticated() Requirement { return Requirement{kind: anyAuthenticated} }

// ResourceOwner passes only for the user that owns the resource.
func ResourceOwner(userID int64) Requirement {
	return Requirement{kind: resourceOwner, target: userID}
}

// AdminOnly passes only for administrators.
func AdminOnly() Requirement { return Requirement{kind: adminOnly} }

// AdminNotSelf passes only for administrators acting on a different user.
// Admin operations that would be irrecoverable when self-applied (deleting
// or demoting one's own account) use this.
func AdminNotSelf(targetUserID int64) Requirement {
	return Requirement{kind: adminNotSelf, target: targetUserID}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize decides whether user satisfies the requirement. Pure function,
// no I/O; a nil user always denies.
func Authorize(user *models.User, req Requirement) Decision {
	if user == nil {
		return Decision{Reason: "authentication required"}
	}
	switch req.kind {
	case anyAuthenticated:
		return Decision{Allowed: true}
	case resourceOwner:
		if user.ID == req.target {
			return Decision{Allowed: true}
		}
		return Decision{Reason: "not the resource owner"}
	case adminOnly:
		if user.IsAdmin {
			return Decision{Allowed: true}
		}
		return Decision{Reason: "admin access required"}
	case adminNotSelf:
		if !user.IsAdmin {
			return Decision{Reason: "admin access required"}
		}
		if user.ID == req.target {
			return Decision{Reason: "cannot target your own account"}
		}
		return Decision{Allowed: true}
	}
	return Decision{Reason: "unknown requirement"}
}
