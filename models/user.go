package models

import (
	"fmt"
	"strings"
)

// User is the sender of an inbound event. It is built per event and never stored.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Lang      string
}

func (u User) String() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return fmt.Sprintf("User{id: %d, name: %q, lang: %s}", u.ID, name, u.Lang)
}
