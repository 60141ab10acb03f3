package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtOrPastPredicates_Monotonic(t *testing.T) {
	predicates := map[string]func(Progress) bool{
		"IsSOWSavedAsFinal":            IsSOWSavedAsFinal,
		"IsArchitectureEnabled":        IsArchitectureEnabled,
		"IsTCOEnabled":                 IsTCOEnabled,
		"IsTCOGenerated":               IsTCOGenerated,
		"IsReadyForSubmission":         IsReadyForSubmission,
		"IsAtOrPastSubmittedForReview": IsAtOrPastSubmittedForReview,
	}

	for name, pred := range predicates {
		t.Run(name, func(t *testing.T) {
			seen := false
			for _, p := range Stages() {
				v := pred(p)
				if seen {
					assert.True(t, v, "predicate %s regressed at stage %s", name, p)
				}
				if v {
					seen = true
				}
			}
			assert.True(t, seen, "predicate %s never became true", name)
		})
	}
}

func TestIsArchitectureEnabled_Boundaries(t *testing.T) {
	for _, p := range []Progress{NotStarted, SOWInProgress, SOWGenerated} {
		assert.False(t, IsArchitectureEnabled(p), "stage %s", p)
	}
	for _, p := range []Progress{
		ArchitectureInProgress, ArchitectureGenerated, TCOInProgress,
		TCOGenerated, ReadyForSubmission, SubmittedForReview,
	} {
		assert.True(t, IsArchitectureEnabled(p), "stage %s", p)
	}
}

func TestIsTCOEnabled_Boundaries(t *testing.T) {
	assert.False(t, IsTCOEnabled(ArchitectureGenerated))
	assert.True(t, IsTCOEnabled(TCOInProgress))
	assert.True(t, IsTCOEnabled(SubmittedForReview))
}

func TestCanSubmitForReview_ExactBoundary(t *testing.T) {
	assert.False(t, CanSubmitForReview(TCOGenerated), "one stage before the window")
	assert.True(t, CanSubmitForReview(ReadyForSubmission), "inside the window")
	assert.False(t, CanSubmitForReview(SubmittedForReview), "one stage after the window")
}

func TestShowArchitectureButtons_Window(t *testing.T) {
	assert.False(t, ShowArchitectureButtons(SOWInProgress))
	assert.True(t, ShowArchitectureButtons(SOWGenerated))
	assert.True(t, ShowArchitectureButtons(ReadyForSubmission))
	assert.False(t, ShowArchitectureButtons(SubmittedForReview))
}

func TestUnknownProgress_FailsClosed(t *testing.T) {
	for _, p := range []Progress{"", "BOGUS_STAGE", "sow_generated"} {
		require.NotPanics(t, func() {
			proj := Project(p, StatusNotSubmitted, RoleSolutionArchitect)
			assert.False(t, proj.IsSOWSavedAsFinal)
			assert.False(t, proj.IsArchitectureEnabled)
			assert.False(t, proj.IsTCOEnabled)
			assert.False(t, proj.IsTCOGenerated)
			assert.False(t, proj.IsReadyForSubmission)
			assert.False(t, proj.CanSubmitForReview)
			assert.False(t, proj.IsAtOrPastSubmittedForReview)
			assert.False(t, proj.ShowArchitectureButtons)
		})
	}
}

func TestRoleGating_AEIndependentOfProgress(t *testing.T) {
	for _, p := range Stages() {
		assert.False(t, CanViewArtifacts(RoleAccountExecutive, StatusTechnicalReview),
			"AE must not see artifacts before deal-desk approval (stage %s)", p)
	}
	assert.True(t, CanViewArtifacts(RoleAccountExecutive, StatusDealDeskApproved))
	assert.True(t, CanViewArtifacts(RoleSolutionArchitect, StatusNotSubmitted))
	assert.True(t, CanViewArtifacts(RoleAdmin, StatusRework))
}

func TestIsInReviewWorkflow(t *testing.T) {
	assert.False(t, IsInReviewWorkflow(StatusNotSubmitted))
	assert.True(t, IsInReviewWorkflow(StatusTechnicalReview))
	assert.True(t, IsInReviewWorkflow(StatusRework))
	assert.True(t, IsInReviewWorkflow(StatusDealDeskReview))
	assert.False(t, IsInReviewWorkflow(StatusDealDeskApproved))
	assert.False(t, IsInReviewWorkflow(DealStatus("garbage")))
}

func TestRank_UnknownRanksAsNotStarted(t *testing.T) {
	assert.Equal(t, 0, Rank(Progress("nope")))
	assert.Equal(t, 0, Rank(NotStarted))
	assert.Greater(t, Rank(SubmittedForReview), Rank(ReadyForSubmission))
}
