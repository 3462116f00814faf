// Package access decides whether a caller may perform an action on a resource.
//
// Roles form an ordered set for write access:
//
//	admin > moderator > author > authenticated > anonymous
//
// Reads (safe actions) are allowed for everyone except on user records.
package access

import (
	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
)

// Action is what the caller wants to do.
type Action int

const (
	ActionList Action = iota
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Safe reports whether the action is read-only.
func (a Action) Safe() bool {
	return a == ActionList || a == ActionRetrieve
}

// Resource is the class of object being acted upon.
type Resource int

const (
	ResourceCategory Resource = iota
	ResourceGenre
	ResourceTitle
	ResourceReview
	ResourceComment
	ResourceUser
	ResourceProfile
)

// Level is a caller's rank relative to a specific object.
type Level int

const (
	LevelAnonymous Level = iota
	LevelAuthenticated
	LevelAuthor
	LevelModerator
	LevelAdmin
)

// LevelOf ranks caller against an object owned by ownerID. ownerID 0 means
// the object has no owner.
func LevelOf(caller *model.User, ownerID uint) Level {
	switch {
	case caller == nil:
		return LevelAnonymous
	case caller.IsAdmin():
		return LevelAdmin
	case caller.IsModerator():
		return LevelModerator
	case ownerID != 0 && caller.ID == ownerID:
		return LevelAuthor
	default:
		return LevelAuthenticated
	}
}

// CanModify reports whether caller may update or delete a post owned by ownerID.
func CanModify(caller *model.User, ownerID uint) bool {
	return LevelOf(caller, ownerID) >= LevelAuthor
}

// Authorize returns nil when caller may perform act on res, otherwise an
// Unauthorized failure for anonymous callers or a Forbidden failure.
// ownerID is the object's author for reviews/comments and the target user's
// ID for profiles; it is ignored elsewhere.
func Authorize(caller *model.User, res Resource, act Action, ownerID uint) error {
	if allowed(caller, res, act, ownerID) {
		return nil
	}
	if caller == nil {
		return apperrors.Unauthorized("authentication credentials were not provided")
	}
	return apperrors.Forbidden("you do not have permission to perform this action")
}

func allowed(caller *model.User, res Resource, act Action, ownerID uint) bool {
	isPost := res == ResourceReview || res == ResourceComment
	if isPost && (act == ActionUpdate || act == ActionDelete) {
		return CanModify(caller, ownerID)
	}

	level := LevelOf(caller, ownerID)
	if res == ResourceProfile && caller != nil && caller.ID == ownerID {
		// A caller always owns their own profile, whatever their role.
		level = max(level, LevelAuthor)
	}
	return level >= requiredLevel(res, act)
}

func requiredLevel(res Resource, act Action) Level {
	switch res {
	case ResourceUser:
		return LevelAdmin
	case ResourceProfile:
		if act == ActionCreate {
			return LevelAdmin
		}
		return LevelAuthor
	}

	if act.Safe() {
		return LevelAnonymous
	}

	switch res {
	case ResourceReview, ResourceComment:
		return LevelAuthenticated
	default:
		return LevelAdmin
	}
}
