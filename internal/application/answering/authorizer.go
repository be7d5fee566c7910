package answering

import (
	"context"

	"github.com/google/uuid"

	"github.com/skillbase/backend/internal/domain/answering"
)

// OwnershipAuthorizer grants management rights to the project owner. Roles
// and org-level permissions live in the identity service; this backend only
// needs the ownership check.
type OwnershipAuthorizer struct{}

// NewOwnershipAuthorizer creates a new ownership-based authorizer
func NewOwnershipAuthorizer() *OwnershipAuthorizer {
	return &OwnershipAuthorizer{}
}

// CanManage reports whether the user may dispatch and review this project
func (a *OwnershipAuthorizer) CanManage(ctx context.Context, userID uuid.UUID, project *answering.Project) (bool, error) {
	if project == nil || userID == uuid.Nil {
		return false, nil
	}
	return project.IsOwnedBy(userID), nil
}

var _ answering.Authorizer = (*OwnershipAuthorizer)(nil)
