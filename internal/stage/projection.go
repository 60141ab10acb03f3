package stage

// The predicates below gate dashboard controls. Each one is membership of the
// current progress in a fixed at-or-past set; none of them ever panics, and
// an unknown progress value answers as NOT_STARTED (least privilege).

// IsSOWSavedAsFinal reports whether the SOW document exists in final form.
func IsSOWSavedAsFinal(p Progress) bool {
	return atOrPast(p, SOWGenerated)
}

// IsArchitectureEnabled reports whether architecture actions are available.
func IsArchitectureEnabled(p Progress) bool {
	return atOrPast(p, ArchitectureInProgress)
}

// IsTCOEnabled reports whether TCO actions are available.
func IsTCOEnabled(p Progress) bool {
	return atOrPast(p, TCOInProgress)
}

// IsTCOGenerated reports whether the TCO estimate exists.
func IsTCOGenerated(p Progress) bool {
	return atOrPast(p, TCOGenerated)
}

// IsReadyForSubmission reports whether all artifacts are complete.
func IsReadyForSubmission(p Progress) bool {
	return atOrPast(p, ReadyForSubmission)
}

// IsAtOrPastSubmittedForReview reports whether the deal has been handed to
// the review workflow.
func IsAtOrPastSubmittedForReview(p Progress) bool {
	return atOrPast(p, SubmittedForReview)
}

// CanSubmitForReview is true exactly at READY_FOR_SUBMISSION: everything is
// generated and the deal has not already been submitted.
func CanSubmitForReview(p Progress) bool {
	return atOrPast(p, ReadyForSubmission) && !atOrPast(p, SubmittedForReview)
}

// ShowArchitectureButtons reports whether architecture generate/re-generate
// controls should render: the SOW exists and the deal is still editable.
func ShowArchitectureButtons(p Progress) bool {
	return atOrPast(p, SOWGenerated) && !atOrPast(p, SubmittedForReview)
}

// IsInReviewWorkflow derives from the review status alone, independent of
// generation progress.
func IsInReviewWorkflow(s DealStatus) bool {
	switch s {
	case StatusTechnicalReview, StatusRework, StatusDealDeskReview:
		return true
	}
	return false
}

// CanViewArtifacts gates the artifacts tab per role. Account executives only
// see artifacts once the deal desk has approved; other roles always can.
// This is ANDed with the stage predicates by callers, never folded into the
// stage order.
func CanViewArtifacts(role Role, s DealStatus) bool {
	if role == RoleAccountExecutive {
		return s == StatusDealDeskApproved
	}
	return true
}

// Projection is the full set of gating booleans for one (progress, status,
// role) triple. The deal metadata endpoint returns it so clients render
// purely from server-sourced values.
type Projection struct {
	IsSOWSavedAsFinal            bool `json:"is_sow_saved_as_final"`
	IsArchitectureEnabled        bool `json:"is_architecture_enabled"`
	IsTCOEnabled                 bool `json:"is_tco_enabled"`
	IsTCOGenerated               bool `json:"is_tco_generated"`
	IsReadyForSubmission         bool `json:"is_ready_for_submission"`
	CanSubmitForReview           bool `json:"can_submit_for_review"`
	IsAtOrPastSubmittedForReview bool `json:"is_at_or_past_submitted_for_review"`
	IsInReviewWorkflow           bool `json:"is_in_review_workflow"`
	ShowArchitectureButtons      bool `json:"show_architecture_buttons"`
	CanViewArtifacts             bool `json:"can_view_artifacts"`
}

// Project computes the projection. Stateless and pure; safe to recompute on
// every request.
func Project(p Progress, s DealStatus, role Role) Projection {
	return Projection{
		IsSOWSavedAsFinal:            IsSOWSavedAsFinal(p),
		IsArchitectureEnabled:        IsArchitectureEnabled(p),
		IsTCOEnabled:                 IsTCOEnabled(p),
		IsTCOGenerated:               IsTCOGenerated(p),
		IsReadyForSubmission:         IsReadyForSubmission(p),
		CanSubmitForReview:           CanSubmitForReview(p),
		IsAtOrPastSubmittedForReview: IsAtOrPastSubmittedForReview(p),
		IsInReviewWorkflow:           IsInReviewWorkflow(s),
		ShowArchitectureButtons:      ShowArchitectureButtons(p),
		CanViewArtifacts:             CanViewArtifacts(role, s),
	}
}
