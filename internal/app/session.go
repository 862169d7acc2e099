package app

import (
	"fmt"
	"os/user"

	"github.com/google/uuid"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// Session carries the per-invocation inputs shared by the workflows.
type Session struct {
	// Profile scopes every remote call.
	Profile model.NetworkProfile
	// Layout resolves the version directories.
	Layout model.Layout
	// Address replaces the placeholder in rendered configs.
	Address string
	// OverridesPath is an optional override file.
	OverridesPath string
	// RunID correlates the log lines of one invocation.
	RunID string
}

// NewSession creates a Session with a fresh run id.
func NewSession(profile model.NetworkProfile, layout model.Layout, address, overridesPath string) *Session {
	return &Session{
		Profile:       profile,
		Layout:        layout,
		Address:       address,
		OverridesPath: overridesPath,
		RunID:         uuid.NewString(),
	}
}

// AccountVerifier checks that the process runs under the expected account.
type AccountVerifier interface {
	Verify() error
}

// UserVerifier requires the current OS user to be Required. Empty Required accepts anyone.
type UserVerifier struct {
	Required string
	// current is replaced in tests.
	current func() (*user.User, error)
}

// NewUserVerifier creates a verifier for the required account name.
func NewUserVerifier(required string) *UserVerifier {
	return &UserVerifier{Required: required, current: user.Current}
}

// Verify implements AccountVerifier.
func (v *UserVerifier) Verify() error {
	if v.Required == "" {
		return nil
	}
	lookup := v.current
	if lookup == nil {
		lookup = user.Current
	}
	u, err := lookup()
	if err != nil {
		return NewPreconditionError("failed to determine current user", err)
	}
	if u.Username != v.Required {
		return NewPreconditionError(fmt.Sprintf("must run as %q, running as %q", v.Required, u.Username), nil)
	}
	return nil
}

// verifierFunc adapts a function to AccountVerifier.
type verifierFunc func() error

func (f verifierFunc) Verify() error { return f() }

// AnyAccount accepts every account.
var AnyAccount AccountVerifier = verifierFunc(func() error { return nil })
