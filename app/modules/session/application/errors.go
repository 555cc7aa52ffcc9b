package sessionservice

import (
	"errors"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
)

var (
	ErrSessionCompleted = errors.New("session is already completed")
	ErrUnknownPlayer    = errors.New("player is not seated in this session")
	ErrWrongGameType    = errors.New("operation does not apply to this game type")
	ErrBlankPlayerName  = errors.New("player names must not be blank")
	ErrInvalidSince     = errors.New("invalid since filter")
)

// IsValidation reports whether err is caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownPlayer) ||
		errors.Is(err, ErrWrongGameType) ||
		errors.Is(err, ErrBlankPlayerName) ||
		errors.Is(err, ErrInvalidSince) ||
		errors.Is(err, scoringdomain.ErrUnknownGameType) ||
		errors.Is(err, scoringdomain.ErrInvalidPlayerCount)
}

// IsNotFound reports whether err names a missing session, round or export.
func IsNotFound(err error) bool {
	return errors.Is(err, sessiondb.ErrNotFound) ||
		errors.Is(err, sessiondb.ErrRoundNotFound) ||
		errors.Is(err, sessiondb.ErrExportNotFound)
}

// IsConflict reports whether err is a state conflict with the stored session.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSessionCompleted) || errors.Is(err, sessiondb.ErrRoundConflict)
}
