package intelligence

// Tier is a coarse retention class derived from strength.
type Tier string

const (
	// TierWorking holds memories close to being forgotten.
	TierWorking Tier = "working"

	// TierShortTerm holds memories of moderate strength.
	TierShortTerm Tier = "short_term"

	// TierLongTerm holds strongly retained memories.
	TierLongTerm Tier = "long_term"
)

// Tier boundaries on the strength scale.
const (
	WorkingThreshold   = 0.3
	ShortTermThreshold = 0.6
)

// AllTiers lists tiers from weakest to strongest.
var AllTiers = []Tier{TierWorking, TierShortTerm, TierLongTerm}
