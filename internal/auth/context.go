package auth

import "github.com/gin-gonic/gin"

// Keys under which the auth gate stores the resolved identity.
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "userID"
	ContextRoleKey   = "userRole"
)

func SetCurrentUser(c *gin.Context, user *User) {
	c.Set(ContextUserKey, user)
	c.Set(ContextUserIDKey, user.ID)
	c.Set(ContextRoleKey, user.Role)
}

// CurrentUser returns the identity attached by the auth gate, if any.
func CurrentUser(c *gin.Context) (*User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*User)
	return user, ok && user != nil
}
