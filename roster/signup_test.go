package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/clanops/eventbot/models"
)

func TestJoinFillsCapacityThenQueuesPriorityAlternate(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 2))
	svc := newTestService(st)
	ctx := context.Background()

	for _, id := range []string{"alice", "bob"} {
		res, err := svc.Join(ctx, "e1", id, models.RolePartaking)
		if err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		if res.Outcome != JoinedPartaking {
			t.Fatalf("join %s outcome = %v, want JoinedPartaking", id, res.Outcome)
		}
	}

	// Third partaking request against a full roster is queued, not
	// rejected.
	res, err := svc.Join(ctx, "e1", "carol", models.RolePartaking)
	if err != nil {
		t.Fatalf("join carol: %v", err)
	}
	if res.Outcome != JoinedPriorityAlternate {
		t.Fatalf("outcome = %v, want JoinedPriorityAlternate", res.Outcome)
	}

	carol := st.find("e1", "carol")
	if carol.Role != models.RoleAlternate || !carol.PriorityAlternate {
		t.Errorf("carol stored as %s/priority=%v, want alternate/priority=true", carol.Role, carol.PriorityAlternate)
	}

	parts, _ := st.ListParticipants(ctx, "e1")
	if n := NewRoster(parts).PartakingCount(); n != 2 {
		t.Errorf("partaking count = %d, want 2", n)
	}
}

func TestJoinAsAlternate(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 6))
	svc := newTestService(st)

	res, err := svc.Join(context.Background(), "e1", "alice", models.RoleAlternate)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if res.Outcome != JoinedAlternate {
		t.Fatalf("outcome = %v, want JoinedAlternate", res.Outcome)
	}
	if p := st.find("e1", "alice"); p.PriorityAlternate {
		t.Error("fresh alternate should not hold priority")
	}
}

func TestJoinRepeatIsNoOp(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 6))
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "e1", "alice", models.RolePartaking); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Join(ctx, "e1", "alice", models.RolePartaking)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if res.Outcome != AlreadySignedUp {
		t.Fatalf("outcome = %v, want AlreadySignedUp", res.Outcome)
	}
}

func TestJoinAlternateKeepsEarnedPriority(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 1))
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "e1", "alice", models.RolePartaking); err != nil {
		t.Fatal(err)
	}
	// Bob is bumped to priority alternate by the full roster.
	if _, err := svc.Join(ctx, "e1", "bob", models.RolePartaking); err != nil {
		t.Fatal(err)
	}

	// Re-joining as a plain alternate must not strip the earned flag.
	res, err := svc.Join(ctx, "e1", "bob", models.RoleAlternate)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != AlreadySignedUp {
		t.Fatalf("outcome = %v, want AlreadySignedUp", res.Outcome)
	}
	if p := st.find("e1", "bob"); !p.PriorityAlternate {
		t.Error("priority flag was stripped by an alternate re-join")
	}
}

func TestJoinPreservesOriginalTimestamp(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 1))
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "e1", "alice", models.RoleAlternate); err != nil {
		t.Fatal(err)
	}
	joined := st.find("e1", "alice").JoinedAt

	if _, err := svc.Join(ctx, "e1", "alice", models.RolePartaking); err != nil {
		t.Fatal(err)
	}
	if got := st.find("e1", "alice").JoinedAt; !got.Equal(joined) {
		t.Errorf("joined-at changed on role switch: %v -> %v", joined, got)
	}
}

func TestJoinRejectsNonUpcoming(t *testing.T) {
	event := upcomingEvent("e1", 6)
	event.Status = models.StatusActive
	svc := newTestService(newFakeStore(event))

	_, err := svc.Join(context.Background(), "e1", "alice", models.RolePartaking)
	if !errors.Is(err, ErrEventNotJoinable) {
		t.Fatalf("err = %v, want ErrEventNotJoinable", err)
	}
}

func TestJoinUnknownEvent(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Join(context.Background(), "missing", "alice", models.RolePartaking)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}

func TestWithdrawPromotesPriorityAlternateFirst(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 1))
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "e1", "alice", models.RolePartaking); err != nil {
		t.Fatal(err)
	}
	// Bob queues first but as an ordinary alternate; carol is bumped
	// into the priority queue afterwards and must still win the slot.
	if _, err := svc.Join(ctx, "e1", "bob", models.RoleAlternate); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Join(ctx, "e1", "carol", models.RolePartaking); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Withdraw(ctx, "e1", "alice")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Promoted == nil || res.Promoted.DiscordID != "carol" {
		t.Fatalf("promoted = %+v, want carol", res.Promoted)
	}

	carol := st.find("e1", "carol")
	if carol.Role != models.RolePartaking || carol.PriorityAlternate {
		t.Errorf("carol stored as %s/priority=%v, want partaking with priority cleared", carol.Role, carol.PriorityAlternate)
	}
	if bob := st.find("e1", "bob"); bob.Role != models.RoleAlternate {
		t.Errorf("bob was promoted too; one withdrawal promotes at most one alternate")
	}

	parts, _ := st.ListParticipants(ctx, "e1")
	if n := NewRoster(parts).PartakingCount(); n != 1 {
		t.Errorf("partaking count = %d, want 1", n)
	}
}

func TestWithdrawPromotesEarliestSignup(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 1))
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "e1", "alice", models.RolePartaking); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Join(ctx, "e1", "bob", models.RoleAlternate); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Join(ctx, "e1", "carol", models.RoleAlternate); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Withdraw(ctx, "e1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if res.Promoted == nil || res.Promoted.DiscordID != "bob" {
		t.Fatalf("promoted = %+v, want bob (earliest signup)", res.Promoted)
	}
}

func TestWithdrawAlternateLeavesRosterAlone(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 1))
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "e1", "alice", models.RolePartaking); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Join(ctx, "e1", "bob", models.RoleAlternate); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Withdraw(ctx, "e1", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if res.Promoted != nil {
		t.Fatalf("promoted = %+v, want none for an alternate withdrawal", res.Promoted)
	}
	if alice := st.find("e1", "alice"); alice.Role != models.RolePartaking {
		t.Error("partaking member disturbed by alternate withdrawal")
	}
}

func TestWithdrawNotSignedUp(t *testing.T) {
	svc := newTestService(newFakeStore(upcomingEvent("e1", 6)))
	_, err := svc.Withdraw(context.Background(), "e1", "ghost")
	if !errors.Is(err, ErrNotSignedUp) {
		t.Fatalf("err = %v, want ErrNotSignedUp", err)
	}
}

func TestSignupLifecycle(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 2))
	svc := newTestService(st)
	ctx := context.Background()

	// A and B fill the roster, C is bumped to priority alternate, A
	// withdraws and C takes the freed slot.
	for _, id := range []string{"A", "B", "C"} {
		if _, err := svc.Join(ctx, "e1", id, models.RolePartaking); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	res, err := svc.Withdraw(ctx, "e1", "A")
	if err != nil {
		t.Fatalf("withdraw A: %v", err)
	}
	if res.Promoted == nil || res.Promoted.DiscordID != "C" {
		t.Fatalf("promoted = %+v, want C", res.Promoted)
	}

	parts, _ := st.ListParticipants(ctx, "e1")
	r := NewRoster(parts)
	var partaking []string
	for _, p := range r.Partaking() {
		partaking = append(partaking, p.DiscordID)
	}
	if len(partaking) != 2 || partaking[0] != "B" || partaking[1] != "C" {
		t.Errorf("partaking = %v, want [B C]", partaking)
	}
	if alts := r.Alternates(); len(alts) != 0 {
		t.Errorf("alternates = %v, want empty", alts)
	}
}

func TestWithdrawSurvivesPromotionFailure(t *testing.T) {
	st := newFakeStore(upcomingEvent("e1", 1))
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Join(ctx, "e1", "alice", models.RolePartaking); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Join(ctx, "e1", "bob", models.RoleAlternate); err != nil {
		t.Fatal(err)
	}

	st.roleErr = errors.New("connection reset")
	res, err := svc.Withdraw(ctx, "e1", "alice")
	if err != nil {
		t.Fatalf("withdraw failed outright: %v", err)
	}
	if res.Promoted != nil {
		t.Fatalf("promoted = %+v, want none after promotion failure", res.Promoted)
	}
	if st.find("e1", "alice") != nil {
		t.Error("withdrawn signup still present")
	}
}
