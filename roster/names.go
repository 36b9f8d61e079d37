package roster

import "strconv"

// defaultTeamNames seeds random assignment and blank create-team
// requests. Once exhausted, teams fall back to numbered names.
var defaultTeamNames = []string{
	"The Taken Tacos",
	"Crota's Croissants",
	"Gjallarhorny",
	"The Shaxx Pack",
	"Vex on the Beach",
	"The Cabal Crushers",
	"Hive Minded",
	"The Fallen Few",
	"Raid and Chill",
	"The Light Brigade",
	"Sparrow Speedsters",
	"The Iron Bananas",
	"Void Walkers",
	"The Arc Nemeses",
	"Solar Flares",
}

// teamName returns the nth (0-based) sequential team name.
func teamName(n int) string {
	if n < len(defaultTeamNames) {
		return "Team " + defaultTeamNames[n]
	}
	return "Team " + strconv.Itoa(n+1)
}
