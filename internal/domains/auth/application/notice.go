// Package application derives the messages shown on the login and registration pages.
package application

import (
	"net/url"

	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

// Notice is a one-line banner on an auth page.
type Notice struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// LoginNotice maps the login page query flags to a banner. The error flag wins over logout, which wins over registered.
func LoginNotice(query url.Values) (Notice, bool) {
	switch {
	case query.Has("error"):
		return Notice{Message: "Invalid email or password. Please try again."}, true
	case query.Has("logout"):
		return Notice{Message: "You have been signed out successfully.", Success: true}, true
	case query.Has("registered"):
		return Notice{Message: "Account created! Please sign in.", Success: true}, true
	default:
		return Notice{}, false
	}
}

// RegistrationNotice surfaces the server's message after a failed registration.
func RegistrationNotice(query url.Values) (Notice, bool) {
	if !query.Has("error") {
		return Notice{}, false
	}
	if msg := query.Get("message"); msg != "" {
		return Notice{Message: msg}, true
	}
	return Notice{Message: "Unable to create the account. Please try again."}, true
}

// CheckRegistration blocks a registration whose password confirmation does not match.
func CheckRegistration(password, confirmation string) error {
	if password != confirmation {
		return apierrors.Invalid("Passwords do not match.")
	}
	return nil
}
