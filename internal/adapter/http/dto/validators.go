package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	safeIDRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
	// Session identifiers are opaque client tokens; allow the characters
	// common to UUIDs, JWT-ish tokens and cookie values, bounded in length
	// so they index cleanly.
	sessionTokenRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.:@]{1,255}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("session_token", validateSessionToken)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeIDRe.MatchString(fl.Field().String())
}

func validateSessionToken(fl validator.FieldLevel) bool {
	return sessionTokenRe.MatchString(fl.Field().String())
}

// ValidSessionToken reports whether s is acceptable as a session identifier.
// Used for query-string parameters that bypass struct binding.
func ValidSessionToken(s string) bool {
	return sessionTokenRe.MatchString(s)
}
