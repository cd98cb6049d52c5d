package store

// Deplete applies one consumption step to a depletable lot: the quantity
// drops by amount and availability follows the remaining quantity. Both the
// remnant and client-order ledgers consume through this rule; it is the only
// place the quantity/availability coupling is actively maintained
// (administrative replaces write the two fields verbatim).
func Deplete(quantity, amount int) (remaining int, available bool) {
	remaining = quantity - amount
	return remaining, remaining > 0
}
