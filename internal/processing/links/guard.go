package links

import "context"

// OwnershipGuard arbitrates mutation and deletion against the acting
// identity. Existence is checked before ownership, so a missing alias always
// surfaces as ErrNotFound rather than ErrForbidden.
type OwnershipGuard struct {
	repo LinkRepository
}

func NewOwnershipGuard(repo LinkRepository) *OwnershipGuard {
	return &OwnershipGuard{repo: repo}
}

// Authorize fetches the link and permits the operation only on exact owner
// equality: an anonymous link is mutable solely by an anonymous actor, an
// owned link solely by its owner. It returns the link so callers avoid a
// second store round trip.
func (g *OwnershipGuard) Authorize(ctx context.Context, alias string, actorID *int64) (*Link, error) {
	link, err := g.repo.FindByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}

	if link.OwnerID == nil && actorID == nil {
		return link, nil
	}
	if link.OwnerID == nil || actorID == nil {
		return nil, ErrForbidden
	}
	if *link.OwnerID != *actorID {
		return nil, ErrForbidden
	}

	return link, nil
}
