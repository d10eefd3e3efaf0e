package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DueDateLayout is the format used when a due date is shown to users
const DueDateLayout = "Jan 2, 2006"

var hundred = decimal.NewFromInt(100)

// PaymentSource is the expense-shaped input of the payment status calculation
type PaymentSource interface {
	ExpenseAmount() decimal.Decimal
	ScheduleEnabled() bool
	Schedule() []Payment
	OneOff() *Payment
}

// PaymentCalculationResult is the derived payment view of one expense. It is never persisted.
type PaymentCalculationResult struct {
	HasPayments        bool            `json:"hasPayments"`
	TotalScheduled     decimal.Decimal `json:"totalScheduled"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	RemainingBalance   decimal.Decimal `json:"remainingBalance"`
	ProgressPercentage decimal.Decimal `json:"progressPercentage"`
	IsFullyPaid        bool            `json:"isFullyPaid"`
	AllPayments        []Payment       `json:"allPayments"`
	NextDuePayment     *Payment        `json:"nextDuePayment"`
	OverduePayments    []Payment       `json:"overduePayments"`
	UpcomingPayments   []Payment       `json:"upcomingPayments"`
}

// CalculatePaymentStatus derives totals, progress and due-date classification for an expense.
//
// The payment set is chosen in priority order: a non-empty schedule when the schedule flag
// is set, else the one-off payment, else nothing (the full amount is due, unscheduled).
// Unpaid payments due before the start of now's calendar day are overdue; the rest are upcoming.
func CalculatePaymentStatus(src PaymentSource, now time.Time) PaymentCalculationResult {
	schedule := src.Schedule()
	oneOff := src.OneOff()
	useSchedule := src.ScheduleEnabled() && len(schedule) > 0

	result := PaymentCalculationResult{
		HasPayments:      useSchedule || oneOff != nil,
		TotalPaid:        decimal.Zero,
		AllPayments:      []Payment{},
		OverduePayments:  []Payment{},
		UpcomingPayments: []Payment{},
	}

	switch {
	case useSchedule:
		result.AllPayments = append(result.AllPayments, schedule...)
		result.TotalScheduled = decimal.Zero
		for _, p := range schedule {
			result.TotalScheduled = result.TotalScheduled.Add(p.Amount)
			if p.IsPaid {
				result.TotalPaid = result.TotalPaid.Add(p.Amount)
			}
		}
	case oneOff != nil:
		result.AllPayments = append(result.AllPayments, *oneOff)
		result.TotalScheduled = oneOff.Amount
		if oneOff.IsPaid {
			result.TotalPaid = oneOff.Amount
		}
	default:
		result.TotalScheduled = src.ExpenseAmount()
	}

	result.RemainingBalance = result.TotalScheduled.Sub(result.TotalPaid)
	result.ProgressPercentage = percentage(result.TotalPaid, result.TotalScheduled)
	result.IsFullyPaid = result.RemainingBalance.IsZero()

	unpaid := make([]Payment, 0, len(result.AllPayments))
	for _, p := range result.AllPayments {
		if !p.IsPaid {
			unpaid = append(unpaid, p)
		}
	}

	if len(unpaid) > 0 {
		byDue := make([]Payment, len(unpaid))
		copy(byDue, unpaid)
		sort.SliceStable(byDue, func(i, j int) bool {
			return byDue[i].DueDate.Before(byDue[j].DueDate)
		})
		next := byDue[0]
		result.NextDuePayment = &next
	}

	today := StartOfDay(now)
	for _, p := range unpaid {
		if DueDay(p.DueDate, now.Location()).Before(today) {
			result.OverduePayments = append(result.OverduePayments, p)
		} else {
			result.UpcomingPayments = append(result.UpcomingPayments, p)
		}
	}

	return result
}

// StatusVariant is the presentation tone of a payment status
type StatusVariant string

const (
	StatusVariantSuccess StatusVariant = "success"
	StatusVariantDanger  StatusVariant = "danger"
	StatusVariantWarning StatusVariant = "warning"
	StatusVariantInfo    StatusVariant = "info"
)

// PaymentStatusText is a human-readable status line for an expense
type PaymentStatusText struct {
	Text    string        `json:"text"`
	Variant StatusVariant `json:"variant"`
}

// GetPaymentStatusText maps a calculation result to its status line.
// Fully paid wins over overdue, which wins over the next due date.
func GetPaymentStatusText(result PaymentCalculationResult) PaymentStatusText {
	if result.IsFullyPaid {
		return PaymentStatusText{Text: "Fully Paid", Variant: StatusVariantSuccess}
	}
	if n := len(result.OverduePayments); n > 0 {
		word := "payments"
		if n == 1 {
			word = "payment"
		}
		return PaymentStatusText{Text: fmt.Sprintf("%d %s overdue", n, word), Variant: StatusVariantDanger}
	}
	if result.NextDuePayment != nil {
		return PaymentStatusText{
			Text:    "Next due: " + result.NextDuePayment.DueDate.Format(DueDateLayout),
			Variant: StatusVariantWarning,
		}
	}
	if !result.HasPayments {
		return PaymentStatusText{Text: "Payment Pending", Variant: StatusVariantInfo}
	}
	return PaymentStatusText{Text: "No pending payments", Variant: StatusVariantInfo}
}

// CategoryPaymentStats aggregates payment status over a category's expenses
type CategoryPaymentStats struct {
	TotalExpenses     int             `json:"totalExpenses"`
	FullyPaidExpenses int             `json:"fullyPaidExpenses"`
	OverdueExpenses   int             `json:"overdueExpenses"`
	PendingExpenses   int             `json:"pendingExpenses"`
	TotalScheduled    decimal.Decimal `json:"totalScheduled"`
	TotalPaid         decimal.Decimal `json:"totalPaid"`
	TotalRemaining    decimal.Decimal `json:"totalRemaining"`
	OverallProgress   decimal.Decimal `json:"overallProgress"`
}

// CalculateCategoryPaymentStats reduces the payment status of every expense into one aggregate
func CalculateCategoryPaymentStats[S PaymentSource](expenses []S, now time.Time) CategoryPaymentStats {
	stats := CategoryPaymentStats{
		TotalExpenses:  len(expenses),
		TotalScheduled: decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalRemaining: decimal.Zero,
	}

	for _, e := range expenses {
		r := CalculatePaymentStatus(e, now)
		if r.IsFullyPaid {
			stats.FullyPaidExpenses++
		}
		if len(r.OverduePayments) > 0 {
			stats.OverdueExpenses++
		}
		stats.TotalScheduled = stats.TotalScheduled.Add(r.TotalScheduled)
		stats.TotalPaid = stats.TotalPaid.Add(r.TotalPaid)
		stats.TotalRemaining = stats.TotalRemaining.Add(r.RemainingBalance)
	}

	stats.PendingExpenses = stats.TotalExpenses - stats.FullyPaidExpenses
	stats.OverallProgress = percentage(stats.TotalPaid, stats.TotalScheduled)
	return stats
}

// CalculateCategoryTotals derives a category's scheduled and spent aggregates.
// Only expenses that carry payments contribute to the scheduled amount.
func CalculateCategoryTotals[S PaymentSource](categoryID string, expenses []S, now time.Time) CategoryTotals {
	totals := CategoryTotals{
		CategoryID:      categoryID,
		ScheduledAmount: decimal.Zero,
		SpentAmount:     decimal.Zero,
	}
	for _, e := range expenses {
		r := CalculatePaymentStatus(e, now)
		if r.HasPayments {
			totals.ScheduledAmount = totals.ScheduledAmount.Add(r.TotalScheduled)
		}
		totals.SpentAmount = totals.SpentAmount.Add(r.TotalPaid)
	}
	return totals
}

// StartOfDay truncates t to midnight in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DueDay places a due date's calendar day at midnight in loc. Due dates are
// calendar dates stored as UTC midnight, so the day is read in UTC.
func DueDay(due time.Time, loc *time.Location) time.Time {
	y, m, d := due.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
