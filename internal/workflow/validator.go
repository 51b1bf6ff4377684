// Package workflow decides whether a project may move between stages.
//
// It is a pure decision component: callers hand it a snapshot of the
// project record (and optionally its supplier quotes) and get back a
// judgment. Nothing here reads or writes the database, and expected
// business conditions surface as errors/warnings in the result, never
// as Go errors.
package workflow

import "fmt"

// Quote status checked by the supplier_rfq_sent → quoted rule.
const QuoteStatusReceived = "received"

// Roles allowed to override advisory warnings on a transition.
const (
	RoleManagement       = "management"
	RoleProcurementOwner = "procurement_owner"
)

// Project is the read-only snapshot the validator inspects. Empty
// strings and nil numerics mean "not set".
type Project struct {
	Status              Stage
	CustomerID          string
	Description         string
	EngineeringReviewer string
	QAReviewer          string
	ProductionReviewer  string
	EstimatedValue      *float64
	DueDate             string
}

// Quote is the slice of a supplier quote the validator needs.
type Quote struct {
	Status string
}

// Result is built fresh on every validation call.
type Result struct {
	Valid                   bool     `json:"is_valid"`
	Errors                  []string `json:"errors"`
	Warnings                []string `json:"warnings"`
	CanAutoAdvance          bool     `json:"can_auto_advance"`
	RequiresManagerApproval bool     `json:"requires_manager_approval"`
	AutoAdvanceReason       string   `json:"auto_advance_reason,omitempty"`
}

// Progress summarizes where a project sits in the workflow.
type Progress struct {
	CurrentStage      Stage    `json:"current_stage"`
	NextStage         Stage    `json:"next_stage,omitempty"`
	CanAdvance        bool     `json:"can_advance"`
	ExitCriteria      []string `json:"exit_criteria"`
	CompletedCriteria []string `json:"completed_criteria"`
	PendingCriteria   []string `json:"pending_criteria"`
}

// AutoAdvance is the outcome of CheckAndAutoAdvance.
type AutoAdvance struct {
	ShouldAdvance bool   `json:"should_advance"`
	NextStage     Stage  `json:"next_stage,omitempty"`
	Reason        string `json:"reason"`
}

// backwardAllowed lists (from, to) pairs explicitly permitted to move
// against the canonical ordering. Empty: no backward moves today.
var backwardAllowed = map[[2]Stage]bool{}

// transitionRules holds the per-stage checks applied when leaving that
// stage. Keyed by the current stage; each rule inspects the target and
// is a no-op for pairs it does not recognize. The terminal stage has no
// outgoing rule.
var transitionRules = map[Stage]func(p Project, target Stage, quotes []Quote, res *Result){
	StageInquiryReceived: func(p Project, target Stage, _ []Quote, res *Result) {
		if target != StageTechnicalReview {
			return
		}
		if p.CustomerID == "" {
			res.Errors = append(res.Errors, "Customer must be linked before technical review")
		}
		if p.Description == "" {
			res.Warnings = append(res.Warnings, "Project description is recommended before technical review")
		}
	},
	StageTechnicalReview: func(p Project, target Stage, _ []Quote, res *Result) {
		if target != StageSupplierRFQSent {
			return
		}
		if p.EngineeringReviewer == "" || p.QAReviewer == "" || p.ProductionReviewer == "" {
			res.RequiresManagerApproval = true
			res.Warnings = append(res.Warnings, "Not all reviewers assigned; manager approval required to send supplier RFQ")
		}
	},
	StageSupplierRFQSent: func(p Project, target Stage, quotes []Quote, res *Result) {
		if target != StageQuoted {
			return
		}
		if len(quotes) == 0 {
			res.RequiresManagerApproval = true
			res.Warnings = append(res.Warnings, "No supplier quotes on record; manager approval required to mark as quoted")
			return
		}
		received := 0
		for _, q := range quotes {
			if q.Status == QuoteStatusReceived {
				received++
			}
		}
		if received < len(quotes) {
			res.RequiresManagerApproval = true
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("Only %d/%d supplier quotes received; manager approval required to proceed", received, len(quotes)))
		}
	},
	StageQuoted: func(p Project, target Stage, _ []Quote, res *Result) {
		if target != StageOrderConfirmed {
			return
		}
		if p.EstimatedValue == nil {
			res.RequiresManagerApproval = true
			res.Warnings = append(res.Warnings, "Estimated value missing; manager approval required to confirm order")
		}
	},
	StageOrderConfirmed: func(p Project, target Stage, _ []Quote, res *Result) {
		if target != StageProcurementPlanning {
			return
		}
		res.Warnings = append(res.Warnings, "Verify the internal sales order exists before procurement planning")
	},
	StageProcurementPlanning: func(p Project, target Stage, _ []Quote, res *Result) {
		if target != StageInProduction {
			return
		}
		res.Warnings = append(res.Warnings, "Confirm purchase orders and material planning are complete before production")
	},
	StageInProduction: func(p Project, target Stage, _ []Quote, res *Result) {
		if target != StageShippedClosed {
			return
		}
		res.Warnings = append(res.Warnings, "Confirm all production and inspection steps are complete before shipping")
	},
}

// ValidateStatusChange judges a proposed stage transition. Unknown
// stage values yield a blocking error rather than silent index
// misbehavior.
func ValidateStatusChange(p Project, newStatus Stage, quotes []Quote) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	curIdx := StageIndex(p.Status)
	newIdx := StageIndex(newStatus)
	if curIdx < 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("Unknown current stage %q", p.Status))
		return res
	}
	if newIdx < 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("Unknown target stage %q", newStatus))
		return res
	}

	// Backward moves short-circuit: no further checks run.
	if newIdx < curIdx && !backwardAllowed[[2]Stage{p.Status, newStatus}] {
		res.Errors = append(res.Errors,
			fmt.Sprintf("Cannot move backward from %s to %s", StageLabel(p.Status), StageLabel(newStatus)))
		return res
	}

	if newIdx == curIdx+1 && IsStageComplete(p, p.Status) {
		res.CanAutoAdvance = true
		res.AutoAdvanceReason = fmt.Sprintf("All exit criteria for %s are met; ready for %s",
			StageLabel(p.Status), StageLabel(newStatus))
	}

	if rule, ok := transitionRules[p.Status]; ok {
		rule(p, newStatus, quotes, &res)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// IsStageComplete reports whether the machine-checked completion
// predicate for the given stage holds. Five of the eight stages are
// always-true placeholders carried over from the MVP; criterion-level
// tracking does not exist yet.
func IsStageComplete(p Project, status Stage) bool {
	switch status {
	case StageInquiryReceived:
		return p.CustomerID != "" && p.Description != ""
	case StageTechnicalReview:
		return p.EngineeringReviewer != "" && p.QAReviewer != "" && p.ProductionReviewer != ""
	case StageQuoted:
		return p.EstimatedValue != nil && p.DueDate != ""
	case StageSupplierRFQSent, StageOrderConfirmed, StageProcurementPlanning,
		StageInProduction, StageShippedClosed:
		return true
	default:
		return false
	}
}

// CanMoveToStage reports whether a "move to stage" control should be
// enabled: staying put is always allowed, backward only when
// allow-listed, forward only when the current stage is complete.
func CanMoveToStage(p Project, target Stage) bool {
	curIdx := StageIndex(p.Status)
	tgtIdx := StageIndex(target)
	if curIdx < 0 || tgtIdx < 0 {
		return false
	}
	if tgtIdx == curIdx {
		return true
	}
	if tgtIdx < curIdx {
		return backwardAllowed[[2]Stage{p.Status, target}]
	}
	return IsStageComplete(p, p.Status)
}

// StageProgress builds the reporting view for a project. The
// completed/pending split is a placeholder: criteria are not tracked
// individually, so completed is always empty and pending always the
// full list.
func StageProgress(p Project) Progress {
	prog := Progress{
		CurrentStage:      p.Status,
		CanAdvance:        IsStageComplete(p, p.Status),
		ExitCriteria:      []string{},
		CompletedCriteria: []string{},
		PendingCriteria:   []string{},
	}
	if next := NextValidStages(p.Status); len(next) > 0 {
		prog.NextStage = next[0]
	}
	if criteria, ok := ExitCriteria[p.Status]; ok {
		prog.ExitCriteria = append(prog.ExitCriteria, criteria...)
		prog.PendingCriteria = append(prog.PendingCriteria, criteria...)
	}
	return prog
}

// CanBypass reports whether a role may override advisory warnings.
// Exactly two roles qualify; everything else, including the empty
// string, does not.
func CanBypass(role string) bool {
	return role == RoleManagement || role == RoleProcurementOwner
}

// CheckAndAutoAdvance composes the completion and movement checks into
// an advance recommendation for the immediate next stage.
func CheckAndAutoAdvance(p Project, quotes []Quote) AutoAdvance {
	if !IsStageComplete(p, p.Status) {
		return AutoAdvance{Reason: "Exit criteria not met"}
	}
	next := NextValidStages(p.Status)
	if len(next) == 0 {
		return AutoAdvance{Reason: "Already at final stage"}
	}
	target := next[0]
	if !CanMoveToStage(p, target) {
		return AutoAdvance{Reason: "Cannot advance to next stage"}
	}
	return AutoAdvance{
		ShouldAdvance: true,
		NextStage:     target,
		Reason:        fmt.Sprintf("%s complete; advancing to %s", StageLabel(p.Status), StageLabel(target)),
	}
}
