package role

import "context"

// ResolveEffectiveOwnerID returns the id whose records the caller should read.
// Nominees read their inviter's data, located through the inviter's email; when
// that lookup fails the caller's own id is used.
func (s *Service) ResolveEffectiveOwnerID(ctx context.Context, sessionUserID string, current *Descriptor) (string, error) {
	if sessionUserID == "" {
		return "", ErrNotAuthenticated
	}
	if current == nil || current.Name != NameNominee {
		return sessionUserID, nil
	}
	if current.RelatedUser == nil || current.RelatedUser.Email == "" {
		return sessionUserID, nil
	}

	owner, err := s.users.GetByEmail(ctx, current.RelatedUser.Email)
	if err != nil {
		s.log.BusinessError("roles.resolve_owner: inviter lookup failed", err, "user_id", sessionUserID)
		return sessionUserID, nil
	}
	return owner.UserID, nil
}
