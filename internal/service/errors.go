package service

import "errors"

var (
	ErrInvalidLeague    = errors.New("invalid league")
	ErrLeagueNotFound   = errors.New("league not found")
	ErrAlreadyMember    = errors.New("already a member of this league")
	ErrNotMember        = errors.New("not a member of this league")
	ErrOwnerCannotLeave = errors.New("league owner cannot leave")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidRoster    = errors.New("invalid roster")
	ErrPlayerTaken      = errors.New("player already drafted in this league")
	ErrPlayerOnRoster   = errors.New("player already on roster")
)
