package auth

import "time"

// User is a registered account. Links reference users weakly: deleting a
// user clears the reference on its links instead of deleting them.
type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID    int64
	Email string
}
