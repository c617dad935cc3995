package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedGame builds a running game with known roles: the name of each player
// says what they hold. Roles are overridden after Start so the random deal
// does not matter, then the night is restarted so the sequencer sees them.
func fixedGame(t *testing.T, roles map[string]Role) *Game {
	t.Helper()
	g := NewGame("TEST01")
	for name := range roles {
		_, err := g.Join(name)
		require.NoError(t, err)
	}
	require.NoError(t, g.Start())
	for name, role := range roles {
		g.Registry().FindByName(name).Role = role
	}
	g.StartNightPhase()
	return g
}

func submitNight(t *testing.T, g *Game, actorName, targetName string) Role {
	t.Helper()
	actor := g.Registry().FindByName(actorName)
	target := g.Registry().FindByName(targetName)
	require.NotNil(t, actor)
	require.NotNil(t, target)
	inspected, err := g.SubmitNightAction(actor.ID, target.ID)
	require.NoError(t, err)
	return inspected
}

func voteFor(t *testing.T, g *Game, voterName, targetName string) {
	t.Helper()
	voter := g.Registry().FindByName(voterName)
	targetID := VoteAbstain
	if targetName != "" {
		targetID = g.Registry().FindByName(targetName).ID
	}
	require.NoError(t, g.SubmitVote(voter.ID, targetID))
}

func TestJoinOnlyInLobby(t *testing.T) {
	g := NewGame("TEST01")
	_, err := g.Join("Mario")
	require.NoError(t, err)
	assert.Equal(t, "Mario", g.HostName(), "first joiner hosts")

	g.Join("Luigi")
	g.Join("Peach")
	require.NoError(t, g.Start())

	_, err = g.Join("Wario")
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.Equal(t, 3, g.Registry().Len())
}

func TestLeaveOnlyRemovesInLobby(t *testing.T) {
	g := NewGame("TEST01")
	g.Join("Mario")
	g.Join("Luigi")
	g.Join("Peach")

	g.Leave("Peach")
	assert.Equal(t, 2, g.Registry().Len())

	g.Join("Peach")
	require.NoError(t, g.Start())

	g.Leave("Mario")
	assert.Equal(t, 3, g.Registry().Len(), "running-game roster is fixed")
}

func TestStartRequiresThreePlayers(t *testing.T) {
	g := NewGame("TEST01")
	g.Join("Mario")
	g.Join("Luigi")

	err := g.Start()
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.Equal(t, PhaseLobby, g.Phase())
	assert.Equal(t, StatusWaiting, g.Status())
}

func TestStartOpensTheFirstNight(t *testing.T) {
	g := NewGame("TEST01")
	g.Join("Mario")
	g.Join("Luigi")
	g.Join("Peach")

	require.NoError(t, g.Start())

	assert.Equal(t, StatusRunning, g.Status())
	assert.Equal(t, PhaseNightAction, g.Phase())
	require.NotNil(t, g.ActingPlayer())
	assert.Equal(t, RoleIspettore, g.Sequencer().CurrentRole(), "the inspector acts first")

	assert.ErrorIs(t, g.Start(), ErrWrongPhase)
}

func TestNightActionValidation(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
	})
	peach := g.Registry().FindByName("Peach")
	luigi := g.Registry().FindByName("Luigi")
	mario := g.Registry().FindByName("Mario")

	_, err := g.SubmitNightAction(luigi.ID, mario.ID)
	assert.ErrorIs(t, err, ErrOutOfTurn, "only the acting player may act")

	_, err = g.SubmitNightAction("ghost", mario.ID)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	mario.IsAlive = false
	_, err = g.SubmitNightAction(peach.ID, mario.ID)
	assert.ErrorIs(t, err, ErrDeadPlayer)
	mario.IsAlive = true

	// Self-inspection is legal, if pointless.
	inspected, err := g.SubmitNightAction(peach.ID, peach.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleIspettore, inspected)
	assert.True(t, peach.Confirmed)
}

func TestFullGameCitizensWin(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
		"Toad":  RoleSgarrista,
		"Yoshi": RolePaesano,
	})

	// Night 1: the inspector unmasks Luigi, the mafioso marks Mario, and the
	// sgarrista shields Mario after the mark was already placed.
	inspected := submitNight(t, g, "Peach", "Luigi")
	assert.Equal(t, RoleMafioso, inspected)
	submitNight(t, g, "Luigi", "Mario")
	submitNight(t, g, "Toad", "Mario")

	assert.Equal(t, PhaseDayDiscussion, g.Phase())
	assert.True(t, g.Registry().FindByName("Mario").IsAlive, "the shield absorbed the kill")

	require.NoError(t, g.BeginVoting())
	assert.Equal(t, PhaseDayVoting, g.Phase())

	voteFor(t, g, "Mario", "Luigi")
	voteFor(t, g, "Peach", "Luigi")
	voteFor(t, g, "Toad", "Luigi")
	voteFor(t, g, "Yoshi", "Toad")
	assert.Equal(t, PhaseDayVoting, g.Phase(), "vote stays open until everyone voted")
	voteFor(t, g, "Luigi", "Mario")

	assert.False(t, g.Registry().FindByName("Luigi").IsAlive)
	assert.Equal(t, PhaseGameOver, g.Phase())
	assert.Equal(t, StatusFinished, g.Status())
	assert.Equal(t, WinnerCitizens, g.Winner())
}

func TestTieVoteSparesEveryoneAndNightReturns(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
		"Toad":  RoleSgarrista,
	})
	submitNight(t, g, "Peach", "Peach")
	submitNight(t, g, "Luigi", "Luigi") // marks himself
	submitNight(t, g, "Toad", "Luigi")

	require.NoError(t, g.BeginVoting())
	voteFor(t, g, "Mario", "Luigi")
	voteFor(t, g, "Luigi", "Mario")
	voteFor(t, g, "Peach", "")
	voteFor(t, g, "Toad", "")

	for _, p := range g.Registry().All() {
		assert.True(t, p.IsAlive, "%s must survive a tie", p.Name)
	}
	assert.Equal(t, PhaseNightAction, g.Phase(), "an inconclusive day rolls into the next night")
}

func TestProtectionExpiresNextNight(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
		"Toad":  RoleSgarrista,
	})
	submitNight(t, g, "Peach", "Luigi")
	submitNight(t, g, "Luigi", "Mario")
	submitNight(t, g, "Toad", "Mario")
	require.True(t, g.Registry().FindByName("Mario").IsAlive)

	require.NoError(t, g.BeginVoting())
	require.NoError(t, g.ForceResolve()) // nobody voted, nobody dies

	assert.Equal(t, PhaseNightAction, g.Phase())
	for _, p := range g.Registry().All() {
		assert.False(t, p.IsProtected, "%s carried protection across nights", p.Name)
	}

	// Night 2: same mark, no shield this time.
	submitNight(t, g, "Peach", "Toad")
	submitNight(t, g, "Luigi", "Mario")
	submitNight(t, g, "Toad", "Toad")

	assert.False(t, g.Registry().FindByName("Mario").IsAlive)
}

func TestMafiaWinsWhenTheyCannotBeOutvoted(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
	})
	submitNight(t, g, "Peach", "Mario")
	submitNight(t, g, "Luigi", "Mario")

	// Mario died in the night, leaving Luigi and Peach: one mafioso among
	// two living players ends the game immediately.
	assert.False(t, g.Registry().FindByName("Mario").IsAlive)
	assert.Equal(t, PhaseGameOver, g.Phase())
	assert.Equal(t, WinnerMafia, g.Winner())
}

func TestVoteValidation(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
		"Toad":  RoleSgarrista,
	})
	mario := g.Registry().FindByName("Mario")
	luigi := g.Registry().FindByName("Luigi")

	assert.ErrorIs(t, g.SubmitVote(mario.ID, luigi.ID), ErrWrongPhase)

	submitNight(t, g, "Peach", "Peach")
	submitNight(t, g, "Luigi", "Toad")
	submitNight(t, g, "Toad", "Toad")
	require.NoError(t, g.BeginVoting())

	assert.ErrorIs(t, g.SubmitVote("ghost", luigi.ID), ErrUnknownPlayer)
	assert.ErrorIs(t, g.SubmitVote(mario.ID, "ghost"), ErrUnknownPlayer)

	mario.IsAlive = false
	assert.ErrorIs(t, g.SubmitVote(mario.ID, luigi.ID), ErrDeadPlayer)
	mario.IsAlive = true

	assert.NoError(t, g.SubmitVote(mario.ID, VoteAbstain))
}

func TestVotingForDeadTargetRejected(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
		"Toad":  RoleSgarrista,
		"Yoshi": RolePaesano,
	})
	submitNight(t, g, "Peach", "Peach")
	submitNight(t, g, "Luigi", "Yoshi")
	submitNight(t, g, "Toad", "Toad")

	yoshi := g.Registry().FindByName("Yoshi")
	require.False(t, yoshi.IsAlive)

	require.NoError(t, g.BeginVoting())
	mario := g.Registry().FindByName("Mario")
	assert.ErrorIs(t, g.SubmitVote(mario.ID, yoshi.ID), ErrDeadPlayer)
}

func TestForceResolveClosesAnOpenVote(t *testing.T) {
	g := fixedGame(t, map[string]Role{
		"Mario": RolePaesano,
		"Luigi": RoleMafioso,
		"Peach": RoleIspettore,
		"Toad":  RoleSgarrista,
		"Yoshi": RolePaesano,
	})
	assert.ErrorIs(t, g.ForceResolve(), ErrWrongPhase)

	submitNight(t, g, "Peach", "Peach")
	submitNight(t, g, "Luigi", "Luigi")
	submitNight(t, g, "Toad", "Toad")
	require.NoError(t, g.BeginVoting())

	// Only two of five voted, both against Luigi; the host closes the vote.
	voteFor(t, g, "Mario", "Luigi")
	voteFor(t, g, "Peach", "Luigi")
	require.NoError(t, g.ForceResolve())

	assert.False(t, g.Registry().FindByName("Luigi").IsAlive)
	assert.Equal(t, WinnerCitizens, g.Winner())
	assert.Equal(t, PhaseGameOver, g.Phase())
}

func TestCheckWinDraw(t *testing.T) {
	g := NewGame("TEST01")
	g.Join("Mario")
	g.Join("Luigi")
	g.Join("Peach")
	require.NoError(t, g.Start())
	for _, p := range g.Registry().All() {
		p.IsAlive = false
	}

	assert.Equal(t, WinnerDraw, g.checkWin())
}

func TestUpdatePlayerAttribute(t *testing.T) {
	g := NewGame("TEST01")
	p, _ := g.Join("Mario")

	require.NoError(t, g.UpdatePlayerAttribute(p.ID, "voted", true))
	assert.True(t, p.Voted)
	require.NoError(t, g.UpdatePlayerAttribute(p.ID, "isAlive", false))
	assert.False(t, p.IsAlive)
	require.NoError(t, g.UpdatePlayerAttribute(p.ID, "confirmed", true))
	assert.True(t, p.Confirmed)

	assert.Error(t, g.UpdatePlayerAttribute(p.ID, "role", true))
	assert.ErrorIs(t, g.UpdatePlayerAttribute("ghost", "voted", true), ErrUnknownPlayer)
}

func TestConfirmations(t *testing.T) {
	g := NewGame("TEST01")
	a, _ := g.Join("Mario")
	b, _ := g.Join("Luigi")

	require.NoError(t, g.ConfirmPlayer(a.ID))
	require.NoError(t, g.ConfirmPlayer(b.ID))
	assert.ErrorIs(t, g.ConfirmPlayer("ghost"), ErrUnknownPlayer)

	g.ResetConfirmations()
	assert.False(t, a.Confirmed)
	assert.False(t, b.Confirmed)
}

func TestSnapshotShape(t *testing.T) {
	g := NewGame("TEST01")
	p, _ := g.Join("Mario")
	g.Join("Luigi")

	snap := g.Snapshot()
	assert.Equal(t, "TEST01", snap.RoomID)
	assert.Equal(t, StatusWaiting, snap.State)
	assert.Equal(t, PhaseLobby, snap.CurrentPhase)
	assert.Equal(t, WinnerNone, snap.Winner)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "Mario", snap.Players[p.ID].Name)
	assert.True(t, snap.Players[p.ID].IsAlive)
}
