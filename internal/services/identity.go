package services

import "github.com/terraincognita07/ecgscan/internal/models"

// Identity is the authenticated caller as resolved by the session layer.
type Identity struct {
	ID   string
	Role models.Role
}

func (identity *Identity) IsPhysician() bool {
	return identity != nil && identity.Role == models.RolePhysician
}

func (identity *Identity) IsNurse() bool {
	return identity != nil && identity.Role == models.RoleNurse
}

func RequireIdentity(identity *Identity) error {
	if identity == nil || identity.ID == "" || !identity.Role.Valid() {
		return ErrUnauthenticated
	}
	return nil
}

func RequireRole(identity *Identity, role models.Role) error {
	if err := RequireIdentity(identity); err != nil {
		return err
	}
	if identity.Role != role {
		return ErrUnauthorized
	}
	return nil
}
