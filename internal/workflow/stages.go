package workflow

// Stage is one of the 8 fixed workflow stages a project passes through.
type Stage string

const (
	StageInquiryReceived     Stage = "inquiry_received"
	StageTechnicalReview     Stage = "technical_review"
	StageSupplierRFQSent     Stage = "supplier_rfq_sent"
	StageQuoted              Stage = "quoted"
	StageOrderConfirmed      Stage = "order_confirmed"
	StageProcurementPlanning Stage = "procurement_planning"
	StageInProduction        Stage = "in_production"
	StageShippedClosed       Stage = "shipped_closed"
)

// StageOrder is the canonical forward sequence. Never mutated.
var StageOrder = []Stage{
	StageInquiryReceived,
	StageTechnicalReview,
	StageSupplierRFQSent,
	StageQuoted,
	StageOrderConfirmed,
	StageProcurementPlanning,
	StageInProduction,
	StageShippedClosed,
}

var stageIndex = map[Stage]int{
	StageInquiryReceived:     0,
	StageTechnicalReview:     1,
	StageSupplierRFQSent:     2,
	StageQuoted:              3,
	StageOrderConfirmed:      4,
	StageProcurementPlanning: 5,
	StageInProduction:        6,
	StageShippedClosed:       7,
}

var stageLabels = map[Stage]string{
	StageInquiryReceived:     "Inquiry Received",
	StageTechnicalReview:     "Technical Review",
	StageSupplierRFQSent:     "Supplier RFQ Sent",
	StageQuoted:              "Quoted",
	StageOrderConfirmed:      "Order Confirmed",
	StageProcurementPlanning: "Procurement Planning",
	StageInProduction:        "In Production",
	StageShippedClosed:       "Shipped & Closed",
}

// ExitCriteria lists human-readable completion requirements per stage.
// Display-only: machine checks live in IsStageComplete.
var ExitCriteria = map[Stage][]string{
	StageInquiryReceived: {
		"Customer linked to project",
		"Inquiry description captured",
		"Initial feasibility reviewed",
	},
	StageTechnicalReview: {
		"Engineering reviewer assigned",
		"QA reviewer assigned",
		"Production reviewer assigned",
		"Technical review completed",
	},
	StageSupplierRFQSent: {
		"RFQ sent to all selected suppliers",
		"Supplier quotes received",
	},
	StageQuoted: {
		"Estimated value recorded",
		"Due date agreed with customer",
		"Quote sent to customer",
	},
	StageOrderConfirmed: {
		"Customer purchase order received",
		"Internal sales order created",
	},
	StageProcurementPlanning: {
		"Purchase orders issued to suppliers",
		"Material availability confirmed",
		"Production slot scheduled",
	},
	StageInProduction: {
		"All production steps completed",
		"Final inspection passed",
	},
	StageShippedClosed: {
		"Shipment dispatched",
		"Project closed out",
	},
}

// StageIndex returns the ordinal of s in StageOrder, or -1 for an
// unknown value.
func StageIndex(s Stage) int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// IsValidStage reports whether s is one of the 8 defined stages.
func IsValidStage(s Stage) bool {
	_, ok := stageIndex[s]
	return ok
}

// StageLabel returns the display label for s, or the raw value if unknown.
func StageLabel(s Stage) string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// NextValidStages returns every stage strictly after current in the
// canonical ordering. Empty for the terminal stage or an unknown value.
func NextValidStages(current Stage) []Stage {
	idx := StageIndex(current)
	if idx < 0 {
		return []Stage{}
	}
	out := make([]Stage, 0, len(StageOrder)-idx-1)
	out = append(out, StageOrder[idx+1:]...)
	return out
}
