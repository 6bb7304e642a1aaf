package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission set. Ownership checks (a patient
// only touching their own appointments) happen in the services; these rows
// only gate which role may reach an operation at all.
var DefaultPolicies = []PermissionPolicy{
	// Admin: everything
	{RoleAdmin, WildcardResource, WildcardAction, EffectAllow},

	// Therapist: own calendar and appointments
	{RoleTherapist, ResourceAvailability, ActionRead, EffectAllow},
	{RoleTherapist, ResourceAvailability, ActionUpdate, EffectAllow},
	{RoleTherapist, ResourceSlot, ActionList, EffectAllow},
	{RoleTherapist, ResourceAppointment, ActionManage, EffectAllow},
	{RoleTherapist, ResourceAppointment, ActionCancel, EffectAllow},
	{RoleTherapist, ResourceAppointment, ActionComplete, EffectAllow},
	{RoleTherapist, ResourceAppointmentNotes, ActionUpdate, EffectAllow},
	{RoleTherapist, ResourceNotification, ActionManage, EffectAllow},
	{RoleTherapist, ResourceNotificationPref, ActionManage, EffectAllow},

	// Patient: book, read and cancel own appointments
	{RolePatient, ResourceAvailability, ActionRead, EffectAllow},
	{RolePatient, ResourceSlot, ActionList, EffectAllow},
	{RolePatient, ResourceAppointment, ActionCreate, EffectAllow},
	{RolePatient, ResourceAppointment, ActionRead, EffectAllow},
	{RolePatient, ResourceAppointment, ActionList, EffectAllow},
	{RolePatient, ResourceAppointment, ActionCancel, EffectAllow},
	{RolePatient, ResourceNotification, ActionManage, EffectAllow},
	{RolePatient, ResourceNotificationPref, ActionManage, EffectAllow},
}

// SeedDefaultPolicies loads DefaultPolicies into auth.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	for _, p := range DefaultPolicies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(DefaultPolicies))
	return nil
}

// New builds a seeded authorization, wrapped with audit logging when enabled.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (IAuthorization, error) {
	e, err := NewEnforcer()
	if err != nil {
		return nil, err
	}
	auth, err := NewAuthorization(e)
	if err != nil {
		return nil, err
	}
	if err := SeedDefaultPolicies(ctx, auth); err != nil {
		return nil, err
	}
	if cfg.EnableAudit {
		auth = NewAuditedAuthorization(auth, logger)
	}
	return auth, nil
}
