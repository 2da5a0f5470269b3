package refundpolicy

import "sort"

// Phase giai đoạn của đặt chỗ khi người thuê yêu cầu hủy/hoàn tiền
type Phase string

const (
	PhasePreMoveIn  Phase = "preMoveIn"
	PhasePostMoveIn Phase = "postMoveIn"
)

// Reason lý do hủy/hoàn tiền
type Reason string

const (
	// Trước khi dọn vào
	ReasonExtenuating Reason = "extenuating"
	ReasonPlans       Reason = "plans"
	ReasonPayment     Reason = "payment"
	ReasonAlternative Reason = "alternative"
	ReasonOther       Reason = "other"

	// Sau khi dọn vào
	ReasonPropertyIssue Reason = "property_issue"
	ReasonMisleading    Reason = "misleading"
	ReasonSafetyConcern Reason = "safety_concern"
	ReasonAccessibility Reason = "accessibility"
	ReasonUnclean       Reason = "unclean"
)

// Requirement những gì lý do bắt buộc phải có
type Requirement struct {
	Review  bool `json:"review"`
	Proof   bool `json:"proof"`
	Details bool `json:"details"`
}

var reviewWithProof = Requirement{Review: true, Proof: true, Details: true}

var reasonTable = map[Phase]map[Reason]Requirement{
	PhasePreMoveIn: {
		ReasonExtenuating: reviewWithProof,
		ReasonPlans:       {},
		ReasonPayment:     {},
		ReasonAlternative: {},
		ReasonOther:       {Review: true, Details: true},
	},
	PhasePostMoveIn: {
		ReasonPropertyIssue: reviewWithProof,
		ReasonMisleading:    reviewWithProof,
		ReasonSafetyConcern: reviewWithProof,
		ReasonAccessibility: reviewWithProof,
		ReasonUnclean:       reviewWithProof,
		ReasonOther:         reviewWithProof,
	},
}

// RequirementFor trả về yêu cầu của lý do trong giai đoạn; ok=false nếu lý do không thuộc giai đoạn
func RequirementFor(phase Phase, reason Reason) (Requirement, bool) {
	reasons, ok := reasonTable[phase]
	if !ok {
		return Requirement{}, false
	}
	req, ok := reasons[reason]
	return req, ok
}

// Reasons danh sách lý do hợp lệ của giai đoạn
func Reasons(phase Phase) []Reason {
	out := make([]Reason, 0, len(reasonTable[phase]))
	for r := range reasonTable[phase] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
