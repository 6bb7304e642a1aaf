package authorize

import (
	"fmt"

	"github.com/google/uuid"
)

type Action string
type Resource string
type Role string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionList   Action = "list"

	// Appointment lifecycle
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"

	// Power actions
	ActionManage  Action = "manage"
	ActionExecute Action = "execute"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionList: {},
	ActionCancel: {}, ActionComplete: {},
	ActionManage: {}, ActionExecute: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	// Scheduling
	ResourceAvailability     Resource = "availability"
	ResourceSlot             Resource = "slot"
	ResourceAppointment      Resource = "appointment"
	ResourceAppointmentNotes Resource = "appointment_notes"

	// Communication
	ResourceNotification     Resource = "notification"
	ResourceNotificationPref Resource = "notification_pref"

	// Platform
	ResourceSystem Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceAvailability: {}, ResourceSlot: {}, ResourceAppointment: {}, ResourceAppointmentNotes: {},
	ResourceNotification: {}, ResourceNotificationPref: {},
	ResourceSystem: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Roles travel in the access token's "rol" claim and are the policy subjects.

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

var KnownRoles = map[Role]struct{}{
	RolePatient:   {},
	RoleTherapist: {},
	RoleAdmin:     {},
}

// ParseRole validates a role string from a token or CLI flag.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := KnownRoles[r]; !ok {
		return "", fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, s)
	}
	return r, nil
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Permission rows: p, role, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}

// ----------------------------
// Actor
// ----------------------------

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool     { return a.Role == RoleAdmin }
func (a Actor) IsTherapist() bool { return a.Role == RoleTherapist }
func (a Actor) IsPatient() bool   { return a.Role == RolePatient }

// Is reports whether the actor is the given user.
func (a Actor) Is(id uuid.UUID) bool { return a.ID != uuid.Nil && a.ID == id }

// System is the actor used by background jobs.
var System = Actor{Role: RoleAdmin}
