package domain

import (
	"strings"

	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

// MsgMissingCredentials is reported before any request when a field is blank.
const MsgMissingCredentials = "Enter both username and password."

// Credentials are the plaintext username and password typed into a page.
type Credentials struct {
	Username string
	Password string
}

// NewCredentials trims the username; the password is kept as typed.
func NewCredentials(username, password string) Credentials {
	return Credentials{Username: strings.TrimSpace(username), Password: password}
}

// Validate fails locally when either field is missing.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return apierrors.Invalid(MsgMissingCredentials)
	}
	return nil
}
