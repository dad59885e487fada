package usage

// Tier is a subscription plan name. Each tier maps to a fixed daily ceiling
// on matched jobs; the mapping is static configuration.
type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

var tierLimits = map[Tier]int{
	TierFree:  10,
	TierBasic: 25,
	TierPro:   50,
}

// DailyLimit returns the daily match ceiling for a tier. Unknown tiers get
// the free ceiling rather than zero, so a bad billing value never locks a
// user out entirely.
func DailyLimit(t Tier) int {
	if limit, ok := tierLimits[t]; ok {
		return limit
	}
	return tierLimits[TierFree]
}

// ParseTier normalizes a stored tier string.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierBasic:
		return TierBasic
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}
