package links

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOwnershipGuard_Authorize(t *testing.T) {
	owner := int64(7)
	stranger := int64(8)

	tests := []struct {
		name    string
		ownerID *int64
		actorID *int64
		wantErr error
	}{
		{"anonymous link, anonymous actor", nil, nil, nil},
		{"owned link, matching owner", &owner, &owner, nil},
		{"owned link, different user", &owner, &stranger, ErrForbidden},
		{"owned link, anonymous actor", &owner, nil, ErrForbidden},
		{"anonymous link, authenticated actor", nil, &owner, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockLinkRepo{
				findByAliasFn: func(_ context.Context, alias string) (*Link, error) {
					return &Link{Alias: alias, OriginalURL: "https://example.com", OwnerID: tt.ownerID, CreatedAt: time.Now()}, nil
				},
			}
			guard := NewOwnershipGuard(repo)

			link, err := guard.Authorize(context.Background(), "abc", tt.actorID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if link == nil || link.Alias != "abc" {
				t.Errorf("expected the fetched link back, got %+v", link)
			}
		})
	}
}

func TestOwnershipGuard_MissingAliasIsNotFound(t *testing.T) {
	// A missing alias surfaces as not found for everyone, never as forbidden.
	guard := NewOwnershipGuard(&mockLinkRepo{})
	actor := int64(7)

	_, err := guard.Authorize(context.Background(), "missing", &actor)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
