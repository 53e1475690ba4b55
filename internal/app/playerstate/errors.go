package playerstate

import (
	"errors"

	"civico/internal/app/ports"
)

var (
	ErrInvalidRequest        = errors.New("invalid player state request")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInsufficientTroops    = errors.New("insufficient troops")
	ErrInvalidField          = errors.New("invalid field upgrade")
	ErrInvalidTarget         = errors.New("invalid dispatch target")
	ErrPacifist              = errors.New("pacifist settlement cannot dispatch troops")
)

// UserMessage maps any failure from this package or the stores behind it to
// the single line shown to a player.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ports.ErrNotFound):
		return "Settlement not found."
	case errors.Is(err, ports.ErrConflict):
		return "Please try again."
	case errors.Is(err, ErrInsufficientResources):
		return "Not enough resources."
	case errors.Is(err, ErrInsufficientTroops):
		return "Not enough troops."
	case errors.Is(err, ErrInvalidField):
		return "That field cannot be upgraded."
	case errors.Is(err, ErrInvalidTarget):
		return "There is no settlement to attack there."
	case errors.Is(err, ErrPacifist):
		return "Disable pacifism before sending troops."
	case errors.Is(err, ErrInvalidRequest):
		return "Invalid request."
	default:
		return "Unable to reach database."
	}
}
