// Package refundpolicy là bảng chính sách hoàn tiền duy nhất: từ số ngày còn lại
// trước khi dọn vào (hoặc cửa sổ sau khi dọn vào) ra tỷ lệ hoàn tiền thuê và phí dịch vụ.
package refundpolicy

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier bậc chính sách được áp dụng
type Tier string

const (
	TierOver30Days  Tier = "over_30_days"
	Tier15To30Days  Tier = "15_to_30_days"
	Tier8To14Days   Tier = "8_to_14_days"
	TierWithin7Days Tier = "within_7_days"
	TierPostMoveIn  Tier = "post_move_in"
)

// Rates tỷ lệ hoàn tiền thuê và phí dịch vụ, trong khoảng [0, 1]
type Rates struct {
	Tier Tier
	Rent decimal.Decimal
	Fee  decimal.Decimal
}

var (
	rateFull    = decimal.NewFromInt(1)
	rateThreeQ  = decimal.RequireFromString("0.75")
	rateHalf    = decimal.RequireFromString("0.5")
	rateNothing = decimal.Zero
)

// PreMoveInRates tra bảng theo số ngày còn lại tới ngày dọn vào
func PreMoveInRates(daysUntil int) Rates {
	switch {
	case daysUntil > 30:
		return Rates{Tier: TierOver30Days, Rent: rateFull, Fee: rateThreeQ}
	case daysUntil >= 15:
		return Rates{Tier: Tier15To30Days, Rent: rateFull, Fee: rateHalf}
	case daysUntil >= 8:
		return Rates{Tier: Tier8To14Days, Rent: rateHalf, Fee: rateHalf}
	default:
		return Rates{Tier: TierWithin7Days, Rent: rateNothing, Fee: rateHalf}
	}
}

// PostMoveInRates chỉ áp dụng trong cửa sổ 24h sau khi dọn vào; phí dịch vụ bị giữ lại toàn bộ
func PostMoveInRates() Rates {
	return Rates{Tier: TierPostMoveIn, Rent: rateHalf, Fee: rateNothing}
}

// Computation kết quả quyết toán
type Computation struct {
	Tier            Tier            `json:"tier"`
	Currency        string          `json:"currency"`
	RentRate        decimal.Decimal `json:"rentRate"`
	FeeRate         decimal.Decimal `json:"feeRate"`
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	ServiceFee      decimal.Decimal `json:"serviceFee"`
	RentRefund      decimal.Decimal `json:"rentRefund"`
	FeeRefund       decimal.Decimal `json:"feeRefund"`
	CancellationFee decimal.Decimal `json:"cancellationFee"`
	RefundAmount    decimal.Decimal `json:"refundAmount"`
}

var zeroDecimalCurrencies = map[string]bool{
	"VND": true, "JPY": true, "KRW": true, "CLP": true, "ISK": true, "UGX": true,
}

// MinorUnits số chữ số thập phân của đơn vị tiền
func MinorUnits(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// Compute tính tiền hoàn. Làm tròn half-up đúng một lần ở đầu ra;
// cancellationFee lấy phần còn lại của phí nên cancellationFee + feeRefund == serviceFee.
func Compute(amount, serviceFee decimal.Decimal, currency string, rates Rates) Computation {
	places := MinorUnits(currency)
	amount = nonNegative(amount)
	serviceFee = nonNegative(serviceFee)
	rentRate := clampRate(rates.Rent)
	feeRate := clampRate(rates.Fee)

	fee := serviceFee.Round(places)
	rentRefund := amount.Mul(rentRate).Round(places)
	feeRefund := serviceFee.Mul(feeRate).Round(places)
	if feeRefund.GreaterThan(fee) {
		feeRefund = fee
	}

	return Computation{
		Tier:            rates.Tier,
		Currency:        strings.ToUpper(currency),
		RentRate:        rentRate,
		FeeRate:         feeRate,
		OriginalAmount:  amount.Round(places),
		ServiceFee:      fee,
		RentRefund:      rentRefund,
		FeeRefund:       feeRefund,
		CancellationFee: fee.Sub(feeRefund),
		RefundAmount:    rentRefund.Add(feeRefund),
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clampRate(r decimal.Decimal) decimal.Decimal {
	if r.IsNegative() {
		return decimal.Zero
	}
	if r.GreaterThan(rateFull) {
		return rateFull
	}
	return r
}
