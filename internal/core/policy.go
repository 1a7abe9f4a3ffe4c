package core

// TransferPolicy decides whether units may move between two kinds of location.
type TransferPolicy func(from, to LocationKind) bool

// DistinctKindsOnly rejects warehouse→warehouse and showroom→showroom moves.
// This also blocks warehouse-to-warehouse rebalancing; swap the policy on the
// sample service to allow it.
func DistinctKindsOnly(from, to LocationKind) bool {
	return from != to
}

// ShowroomPropagation computes the eligible-showroom set of a ledger entry that
// receives units, given whether the entry is being created by this operation.
type ShowroomPropagation func(destinationIsNew bool, source []int64) []int64

// PropagateShowrooms copies the source list onto newly created entries only.
// Existing entries keep their set (nil result means "leave unchanged").
func PropagateShowrooms(destinationIsNew bool, source []int64) []int64 {
	if !destinationIsNew {
		return nil
	}
	out := make([]int64, len(source))
	copy(out, source)
	return out
}
