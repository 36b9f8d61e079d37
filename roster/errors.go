package roster

import "errors"

// Validation failures surfaced to the acting user as plain messages.
// No state is mutated when any of these is returned.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventNotJoinable     = errors.New("event is not accepting sign-ups or withdrawals")
	ErrNotSignedUp          = errors.New("you are not signed up for this event")
	ErrInvalidTeamOperation = errors.New("team operations require a raid race with players-per-team set")
	ErrWrongMode            = errors.New("wrong team formation mode for this operation")
	ErrNotUpcoming          = errors.New("team changes are only allowed for upcoming events")
	ErrNotPartaking         = errors.New("only partaking members can create or join race teams")
	ErrAlreadyOnTeam        = errors.New("you are already on a team for this event")
	ErrNameTaken            = errors.New("a team with that name already exists for this event")
	ErrTeamNotFound         = errors.New("team not found for this event")
	ErrTeamFull             = errors.New("that team is already full")
	ErrNotOnTeam            = errors.New("you are not currently on a team for this event")
	ErrNotEnoughPlayers     = errors.New("not enough partaking players to form a single team")
)
