package ledger

import (
	"errors"

	"github.com/google/uuid"
)

// ErrPairConflict is reported when pairing would leave an identifier shared
// by more than two transactions, or when both sides already belong to
// different pairs. The operation is a no-op in either case; conflicts are
// surfaced, never auto-resolved.
var ErrPairConflict = errors.New("ledger: pairing conflict")

// Pair links two transactions as counter transactions of the same economic
// event. If both are unpaired a fresh identifier is minted; if exactly one
// is paired its identifier propagates to the other, unless that identifier
// already has two holders among all known transactions. Pairing two
// transactions that already share an identifier is idempotent.
func Pair(a, b *Transaction, all []*Transaction) error {
	switch {
	case a.PairID == "" && b.PairID == "":
		id := uuid.NewString()
		a.PairID = id
		b.PairID = id
		return nil

	case a.PairID != "" && b.PairID != "":
		if a.PairID == b.PairID {
			return nil
		}
		return ErrPairConflict

	case a.PairID != "":
		return adopt(b, a, all)

	default:
		return adopt(a, b, all)
	}
}

// adopt copies the paired side's identifier onto the unpaired side, refusing
// if the pair is already full.
func adopt(unpaired, paired *Transaction, all []*Transaction) error {
	if countPairMembers(paired.PairID, all) >= 2 {
		return ErrPairConflict
	}
	unpaired.PairID = paired.PairID
	return nil
}

// Counterpart returns the one other transaction sharing t's pairing
// identifier. It returns nil when t is unpaired, when no counterpart exists,
// or when more than one does — the last case indicates a broken invariant
// and is reported through the second return value rather than silently
// picking one.
func Counterpart(t *Transaction, all []*Transaction) (*Transaction, error) {
	if t.PairID == "" {
		return nil, nil
	}

	var others []*Transaction
	for _, other := range all {
		if other.ID != t.ID && other.PairID == t.PairID {
			others = append(others, other)
		}
	}

	switch len(others) {
	case 0:
		return nil, nil
	case 1:
		return others[0], nil
	default:
		return nil, ErrPairConflict
	}
}

func countPairMembers(pairID string, all []*Transaction) int {
	n := 0
	for _, t := range all {
		if t.PairID == pairID {
			n++
		}
	}
	return n
}
