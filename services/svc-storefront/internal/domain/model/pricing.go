package model

import "github.com/shopspring/decimal"

type StepKind string

const (
	StepOption StepKind = "option"
	StepAddon  StepKind = "addon"
)

type (
	// PriceStep records one application of the fold. Charged is what the step
	// added to the running price; it is zero for a waived add-on.
	PriceStep struct {
		Kind    StepKind
		RefID   ID
		Charged decimal.Decimal
		Free    bool
		Running decimal.Decimal
	}

	// PriceQuote folds options and add-ons over a base price in the order they
	// are applied. Add-on promotion checks see the running price at that
	// point, so the order of application matters.
	PriceQuote struct {
		base    decimal.Decimal
		running decimal.Decimal
		steps   []PriceStep
	}
)

func NewPriceQuote(base decimal.Decimal) *PriceQuote {
	return &PriceQuote{
		base:    base,
		running: base,
	}
}

func (q *PriceQuote) ApplyOption(option Option) {
	q.running = q.running.Add(option.AdditionalPrice)
	q.steps = append(q.steps, PriceStep{
		Kind:    StepOption,
		RefID:   option.ID,
		Charged: option.AdditionalPrice,
		Running: q.running,
	})
}

// ApplyAddon charges the add-on unless the promotion waives it at the current
// running price. It returns the charged amount and whether it was free.
func (q *PriceQuote) ApplyAddon(addon Addon) (decimal.Decimal, bool) {
	step := PriceStep{
		Kind:  StepAddon,
		RefID: addon.ID,
	}

	if addon.IsFreeAt(q.running) {
		step.Free = true
		step.Charged = decimal.Zero
	} else {
		step.Charged = addon.Price
		q.running = q.running.Add(addon.Price)
	}

	step.Running = q.running
	q.steps = append(q.steps, step)

	return step.Charged, step.Free
}

func (q *PriceQuote) Base() decimal.Decimal {
	return q.base
}

func (q *PriceQuote) Total() decimal.Decimal {
	return q.running
}

func (q *PriceQuote) Steps() []PriceStep {
	steps := make([]PriceStep, len(q.steps))
	copy(steps, q.steps)

	return steps
}
