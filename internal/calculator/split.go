package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmynk/settleup/internal/models"
)

// ErrInvalidSplit is returned when share inputs cannot produce valid shares.
var ErrInvalidSplit = errors.New("invalid split")

// MaxAmount is the largest amount whose cents are exact in a float64.
const MaxAmount = float64(1<<53) / 100

// ShareInput is one participant of a split. Value is ignored for EQUAL,
// a percentage for PERCENT and an amount for EXACT.
type ShareInput struct {
	PersonID string
	Value    float64
}

// SplitShares divides amount among participants according to mode.
//
// EQUAL and PERCENT shares are computed in cents so they sum exactly to
// amount: EQUAL hands leftover cents to the leading participants one each,
// PERCENT gives the rounding leftover to the first participant. EXACT shares
// are rounded to cents and must then sum to amount to the cent.
func SplitShares(mode models.SplitMode, amount float64, inputs []ShareInput) ([]models.Share, error) {
	if math.IsNaN(amount) || amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidSplit)
	}
	if amount > MaxAmount {
		return nil, fmt.Errorf("%w: amount exceeds %.2f", ErrInvalidSplit, MaxAmount)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", ErrInvalidSplit)
	}

	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.PersonID == "" {
			return nil, fmt.Errorf("%w: participant id required", ErrInvalidSplit)
		}
		if seen[in.PersonID] {
			return nil, fmt.Errorf("%w: duplicate participant %s", ErrInvalidSplit, in.PersonID)
		}
		if math.IsNaN(in.Value) || in.Value < 0 {
			return nil, fmt.Errorf("%w: negative value for %s", ErrInvalidSplit, in.PersonID)
		}
		if in.Value > MaxAmount {
			return nil, fmt.Errorf("%w: value for %s exceeds %.2f", ErrInvalidSplit, in.PersonID, MaxAmount)
		}
		seen[in.PersonID] = true
	}

	switch mode {
	case models.SplitEqual, "":
		return splitEqual(amount, inputs), nil
	case models.SplitPercent:
		return splitPercent(amount, inputs)
	case models.SplitExact:
		return splitExact(amount, inputs)
	default:
		return nil, fmt.Errorf("%w: unknown split mode %q", ErrInvalidSplit, mode)
	}
}

func splitEqual(amount float64, inputs []ShareInput) []models.Share {
	total := int64(math.Round(amount * 100))
	n := int64(len(inputs))
	per := total / n
	extra := total - per*n

	shares := make([]models.Share, len(inputs))
	for i, in := range inputs {
		cents := per
		if int64(i) < extra {
			cents++
		}
		shares[i] = models.Share{PersonID: in.PersonID, Amount: float64(cents) / 100}
	}
	return shares
}

func splitPercent(amount float64, inputs []ShareInput) ([]models.Share, error) {
	var pctSum float64
	for _, in := range inputs {
		if in.Value > 100 {
			return nil, fmt.Errorf("%w: percentage for %s exceeds 100", ErrInvalidSplit, in.PersonID)
		}
		pctSum += in.Value
	}
	if math.Abs(pctSum-100) > Epsilon {
		return nil, fmt.Errorf("%w: percentages sum to %.2f, want 100", ErrInvalidSplit, pctSum)
	}

	total := int64(math.Round(amount * 100))
	shares := make([]models.Share, len(inputs))
	var assigned int64
	for i, in := range inputs {
		cents := int64(math.Round(float64(total) * in.Value / 100))
		assigned += cents
		shares[i] = models.Share{PersonID: in.PersonID, Amount: float64(cents)}
	}
	// Rounding leftover goes to the first participant
	shares[0].Amount += float64(total - assigned)
	for i := range shares {
		shares[i].Amount /= 100
	}
	return shares, nil
}

func splitExact(amount float64, inputs []ShareInput) ([]models.Share, error) {
	total := int64(math.Round(amount * 100))
	shares := make([]models.Share, len(inputs))
	var sum int64
	for i, in := range inputs {
		cents := int64(math.Round(in.Value * 100))
		sum += cents
		shares[i] = models.Share{PersonID: in.PersonID, Amount: float64(cents) / 100}
	}
	if sum != total {
		return nil, fmt.Errorf("%w: exact amounts sum to %.2f, want %.2f", ErrInvalidSplit, float64(sum)/100, float64(total)/100)
	}
	return shares, nil
}
