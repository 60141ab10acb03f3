package stage

// DealStatus tracks the human review workflow. It is a separate axis from
// Progress: a deal can be deep into generation and not yet submitted, or
// reworked after deal-desk feedback.
type DealStatus string

const (
	StatusNotSubmitted     DealStatus = "NOT_SUBMITTED"
	StatusTechnicalReview  DealStatus = "TECHNICAL_REVIEW"
	StatusRework           DealStatus = "REWORK"
	StatusDealDeskReview   DealStatus = "DEAL_DESK_REVIEW"
	StatusDealDeskApproved DealStatus = "DEAL_DESK_APPROVED"
)

// Role is the dashboard user's role, extracted from the auth token.
type Role string

const (
	RoleAccountExecutive  Role = "AE"
	RoleSolutionArchitect Role = "SA"
	RoleAdmin             Role = "ADMIN"
)

// ValidRole reports whether r is a recognized dashboard role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAccountExecutive, RoleSolutionArchitect, RoleAdmin:
		return true
	}
	return false
}

// ValidStatus reports whether s is a recognized review status.
func ValidStatus(s DealStatus) bool {
	switch s {
	case StatusNotSubmitted, StatusTechnicalReview, StatusRework,
		StatusDealDeskReview, StatusDealDeskApproved:
		return true
	}
	return false
}
