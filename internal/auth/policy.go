package auth

// Policy predicates. Each answers "may this identity perform this operation"
// over already-fetched resource state, so they stay unit-testable without a
// store. The store re-applies the same predicate at write time (see the pg
// store's guarded updates).

// RequireRole checks that the identity's role is one of the allowed roles.
func RequireRole(identity Identity, allowed ...string) error {
	role := normalizeRole(identity.Role)
	for _, a := range allowed {
		if role == normalizeRole(a) {
			return nil
		}
	}
	return ErrForbidden
}

// CanReadProject reports whether the identity may read a project and its
// tasks: the accessor set is the owner plus the participants.
func CanReadProject(identity Identity, ownerID int64, participant bool) bool {
	return identity.ID == ownerID || participant
}

// CanMutateProject reports whether the identity may update or delete a
// project: the owner, or an admin override.
func CanMutateProject(identity Identity, ownerID int64) bool {
	return identity.ID == ownerID || identity.IsAdmin()
}

// CanDeleteTask reports whether the identity may delete a task. Deletion
// keys off the parent project's owner; participants who can read and edit
// the task still may not delete it.
func CanDeleteTask(identity Identity, projectOwnerID int64) bool {
	return identity.ID == projectOwnerID
}

// CanManageParticipants reports whether the identity may add participants.
// Gated by role alone, not project ownership: any manager or teamlead can
// add participants to any project.
func CanManageParticipants(identity Identity) bool {
	return RequireRole(identity, RoleManager, RoleTeamlead) == nil
}
