package roster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clanops/eventbot/models"
)

func signupMany(t *testing.T, svc *Service, eventID string, role models.Role, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, err := svc.Join(context.Background(), eventID, id, role); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
}

// signupAlternates adds alternates directly so roster capacity does not
// interfere with queue setup.
func signupAlternates(t *testing.T, st *fakeStore, eventID string, priority bool, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := st.UpsertParticipant(context.Background(), eventID, id, models.RoleAlternate, priority); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
}

func TestAssignRandomTeamsPartitionsEveryone(t *testing.T) {
	st := newFakeStore(raceFixture("race", 12, 3, models.FormationRandom))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "p1", "p2", "p3", "p4", "p5", "p6", "p7")

	res, err := svc.AssignRandomTeams(context.Background(), "race")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	if len(res.Teams) != 3 {
		t.Fatalf("got %d teams, want 3 for 7 players of size 3", len(res.Teams))
	}

	seen := make(map[string]bool)
	for _, team := range res.Teams {
		for _, id := range team.Members {
			if seen[id] {
				t.Errorf("%s assigned twice", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 7 {
		t.Errorf("%d players assigned, want all 7", len(seen))
	}

	last := res.Teams[2]
	if !last.Undersized || len(last.Members) != 1 {
		t.Errorf("trailing team = %d members undersized=%v, want 1 member marked undersized", len(last.Members), last.Undersized)
	}
	if !strings.Contains(last.Team.Name, "Undersized") {
		t.Errorf("trailing team name %q not marked undersized", last.Team.Name)
	}
}

func TestAssignRandomTeamsBackfillsFromAlternates(t *testing.T) {
	st := newFakeStore(raceFixture("race", 4, 3, models.FormationRandom))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "p1", "p2", "p3", "p4")
	signupAlternates(t, st, "race", false, "alt1", "alt2", "alt3")

	res, err := svc.AssignRandomTeams(context.Background(), "race")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	if len(res.Teams) != 2 {
		t.Fatalf("got %d teams, want 2", len(res.Teams))
	}
	second := res.Teams[1]
	if second.Undersized || len(second.Members) != 3 {
		t.Fatalf("second team = %d members undersized=%v, want backfilled to 3", len(second.Members), second.Undersized)
	}

	if len(res.Promoted) != 2 {
		t.Fatalf("promoted = %v, want exactly the 2 consumed alternates", res.Promoted)
	}
	for _, id := range res.Promoted {
		p := st.find("race", id)
		if p.Role != models.RolePartaking || p.PriorityAlternate {
			t.Errorf("%s stored as %s/priority=%v, want partaking with priority cleared", id, p.Role, p.PriorityAlternate)
		}
	}

	if len(res.RemainingAlternates) != 1 || res.RemainingAlternates[0] != "alt3" {
		t.Errorf("remaining alternates = %v, want [alt3]", res.RemainingAlternates)
	}
	if p := st.find("race", "alt3"); p.Role != models.RoleAlternate {
		t.Error("unconsumed alternate lost alternate role")
	}
}

func TestAssignRandomTeamsConsumesPriorityAlternatesFirst(t *testing.T) {
	st := newFakeStore(raceFixture("race", 3, 2, models.FormationRandom))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "p1", "p2", "p3")
	signupAlternates(t, st, "race", false, "plain")
	signupAlternates(t, st, "race", true, "bumped")

	res, err := svc.AssignRandomTeams(context.Background(), "race")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(res.Promoted) != 1 || res.Promoted[0] != "bumped" {
		t.Fatalf("promoted = %v, want the priority alternate despite its later signup", res.Promoted)
	}
}

func TestAssignRandomTeamsRerunReplaces(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 3, models.FormationRandom))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "p1", "p2", "p3", "p4", "p5", "p6")
	ctx := context.Background()

	if _, err := svc.AssignRandomTeams(ctx, "race"); err != nil {
		t.Fatal(err)
	}
	res, err := svc.AssignRandomTeams(ctx, "race")
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}

	teams, _ := st.ListTeams(ctx, "race")
	if len(teams) != 2 {
		t.Fatalf("store holds %d teams after rerun, want 2; old teams must not stack", len(teams))
	}
	if len(res.Teams) != 2 {
		t.Fatalf("result reports %d teams, want 2", len(res.Teams))
	}
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
		if p := st.find("race", id); p.TeamID == nil {
			t.Errorf("%s left without a team after rerun", id)
		}
	}
}

func TestAssignRandomTeamsGates(t *testing.T) {
	choose := raceFixture("choose", 6, 3, models.FormationChoose)
	active := raceFixture("active", 6, 3, models.FormationRandom)
	active.Status = models.StatusActive
	raid := upcomingEvent("raid", 6)
	short := raceFixture("short", 6, 3, models.FormationRandom)

	st := newFakeStore(choose, active, raid, short)
	svc := newTestService(st)
	signupMany(t, svc, "short", models.RolePartaking, "p1", "p2")
	ctx := context.Background()

	if _, err := svc.AssignRandomTeams(ctx, "choose"); !errors.Is(err, ErrWrongMode) {
		t.Errorf("choose-mode event: err = %v, want ErrWrongMode", err)
	}
	if _, err := svc.AssignRandomTeams(ctx, "active"); !errors.Is(err, ErrNotUpcoming) {
		t.Errorf("active event: err = %v, want ErrNotUpcoming", err)
	}
	if _, err := svc.AssignRandomTeams(ctx, "raid"); !errors.Is(err, ErrInvalidTeamOperation) {
		t.Errorf("plain raid: err = %v, want ErrInvalidTeamOperation", err)
	}
	if _, err := svc.AssignRandomTeams(ctx, "short"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("2 players for size 3: err = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestCreateTeamPicksFreeDefaultName(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 3, models.FormationChoose))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "alice", "bob")
	ctx := context.Background()

	first, err := svc.CreateTeam(ctx, "race", "alice", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Name != teamName(0) {
		t.Errorf("first blank-name team = %q, want %q", first.Name, teamName(0))
	}
	if p := st.find("race", "alice"); p.TeamID == nil || *p.TeamID != first.ID {
		t.Error("creator not placed on the new team")
	}

	second, err := svc.CreateTeam(ctx, "race", "bob", "")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Name != teamName(1) {
		t.Errorf("second blank-name team = %q, want %q", second.Name, teamName(1))
	}
}

func TestCreateTeamRejectsDuplicateName(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 3, models.FormationChoose))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "alice", "bob")
	ctx := context.Background()

	if _, err := svc.CreateTeam(ctx, "race", "alice", "Dredgen Crew"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTeam(ctx, "race", "bob", "Dredgen Crew"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}
}

func TestCreateTeamEligibility(t *testing.T) {
	st := newFakeStore(raceFixture("race", 1, 3, models.FormationChoose))
	svc := newTestService(st)
	ctx := context.Background()
	signupMany(t, svc, "race", models.RolePartaking, "alice")
	signupAlternates(t, st, "race", false, "alt")

	if _, err := svc.CreateTeam(ctx, "race", "alt", ""); !errors.Is(err, ErrNotPartaking) {
		t.Errorf("alternate creating a team: err = %v, want ErrNotPartaking", err)
	}
	if _, err := svc.CreateTeam(ctx, "race", "stranger", ""); !errors.Is(err, ErrNotPartaking) {
		t.Errorf("non-signup creating a team: err = %v, want ErrNotPartaking", err)
	}

	if _, err := svc.CreateTeam(ctx, "race", "alice", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTeam(ctx, "race", "alice", "Another"); !errors.Is(err, ErrAlreadyOnTeam) {
		t.Errorf("second team by same member: err = %v, want ErrAlreadyOnTeam", err)
	}
}

func TestJoinTeamEnforcesSize(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 2, models.FormationChoose))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "alice", "bob", "carol")
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "race", "alice", "Duo")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.JoinTeam(ctx, "race", "bob", "Duo"); err != nil {
		t.Fatalf("join below size: %v", err)
	}
	if _, err := svc.JoinTeam(ctx, "race", "carol", "Duo"); !errors.Is(err, ErrTeamFull) {
		t.Fatalf("join at size: err = %v, want ErrTeamFull", err)
	}

	count, _ := st.CountTeamMembers(ctx, team.ID)
	if count != 2 {
		t.Errorf("team has %d members, want 2", count)
	}
}

func TestJoinTeamUnknownName(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 3, models.FormationChoose))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "alice")

	if _, err := svc.JoinTeam(context.Background(), "race", "alice", "Nobody Home"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("err = %v, want ErrTeamNotFound", err)
	}
}

func TestLeaveTeamDisbandsWhenEmptied(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 3, models.FormationChoose))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "alice", "bob")
	ctx := context.Background()

	if _, err := svc.CreateTeam(ctx, "race", "alice", "Fading"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.JoinTeam(ctx, "race", "bob", "Fading"); err != nil {
		t.Fatal(err)
	}

	res, err := svc.LeaveTeam(ctx, "race", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if res.Disbanded {
		t.Error("team with a member left reported disbanded")
	}

	res, err = svc.LeaveTeam(ctx, "race", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Disbanded || res.TeamName != "Fading" {
		t.Errorf("last leave = %+v, want disbanded Fading", res)
	}

	teams, _ := st.ListTeams(ctx, "race")
	if len(teams) != 0 {
		t.Errorf("store still holds %d teams, want empty team deleted", len(teams))
	}
}

func TestChooseModeLifecycle(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 3, models.FormationChoose))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "X", "Y", "Z")
	ctx := context.Background()

	if _, err := svc.CreateTeam(ctx, "race", "X", "Alpha"); err != nil {
		t.Fatalf("create Alpha: %v", err)
	}
	if _, err := svc.JoinTeam(ctx, "race", "Y", "Alpha"); err != nil {
		t.Fatalf("Y joins Alpha: %v", err)
	}
	if _, err := svc.JoinTeam(ctx, "race", "Z", "Beta"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("join nonexistent Beta: err = %v, want ErrTeamNotFound", err)
	}

	res, err := svc.LeaveTeam(ctx, "race", "X")
	if err != nil {
		t.Fatalf("X leaves: %v", err)
	}
	if res.Disbanded {
		t.Error("Alpha disbanded with Y still on it")
	}

	res, err = svc.LeaveTeam(ctx, "race", "Y")
	if err != nil {
		t.Fatalf("Y leaves: %v", err)
	}
	if !res.Disbanded {
		t.Error("Alpha kept alive with zero members")
	}
	if teams, _ := st.ListTeams(ctx, "race"); len(teams) != 0 {
		t.Errorf("teams left = %d, want 0", len(teams))
	}
}

func TestLeaveTeamNotOnTeam(t *testing.T) {
	st := newFakeStore(raceFixture("race", 6, 3, models.FormationChoose))
	svc := newTestService(st)
	signupMany(t, svc, "race", models.RolePartaking, "alice")

	if _, err := svc.LeaveTeam(context.Background(), "race", "alice"); !errors.Is(err, ErrNotOnTeam) {
		t.Fatalf("err = %v, want ErrNotOnTeam", err)
	}
}
