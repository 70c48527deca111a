package session

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/neotene/spacebuild/protoerr"
)

// isValidNickname rejects empty or non-printable nicknames, per spec.
func isValidNickname(nickname string) bool {
	if nickname == "" {
		return false
	}
	for _, r := range nickname {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// authenticate validates the nickname locally, then delegates to the
// engine's single-lock authentication routine.
func (s *Session) authenticate(nickname string) (uint32, error) {
	if !isValidNickname(nickname) {
		return 0, fmt.Errorf("nickname %q: %w", nickname, protoerr.ErrInvalidNickname)
	}
	playerID, err := s.engine.Authenticate(nickname, s.outbound)
	if err != nil {
		return 0, err
	}
	return uint32(playerID), nil
}

// authMessage renders the AuthInfo.message field for a failed login,
// matching the exact wording spec.md's scenarios expect.
func authMessage(err error) string {
	switch {
	case errors.Is(err, protoerr.ErrInvalidNickname):
		return "Invalid nickname"
	case errors.Is(err, protoerr.ErrPlayerAlreadyAuthenticated):
		return "Player already authenticated"
	default:
		return err.Error()
	}
}
