// Package rank maps a character's statistics onto the clan's two tier ladders.
//
// Skillers climb gem tiers on experience gained since joining the clan;
// fighters climb on efficient hours bossed (EHB). A character's free-text role
// is parsed once into a Role and everything downstream works on the enums.
package rank

import (
	"sort"
	"strings"
)

// Category is the ladder a role belongs to.
type Category string

const (
	CategoryUnknown Category = ""
	CategorySkiller Category = "skiller"
	CategoryFighter Category = "fighter"
)

// Tier is a named rung on a ladder.
type Tier string

const (
	TierOpal        Tier = "opal"
	TierSapphire    Tier = "sapphire"
	TierEmerald     Tier = "emerald"
	TierRuby        Tier = "ruby"
	TierDiamond     Tier = "diamond"
	TierDragonstone Tier = "dragonstone"
	TierOnyx        Tier = "onyx"
	TierZenyte      Tier = "zenyte"

	TierMentor     Tier = "mentor"
	TierPrefect    Tier = "prefect"
	TierLeader     Tier = "leader"
	TierSupervisor Tier = "supervisor"
	TierSuperior   Tier = "superior"
	TierExecutive  Tier = "executive"
	TierSenator    Tier = "senator"
	TierMonarch    Tier = "monarch"
	TierTzkal      Tier = "tzkal"
)

type threshold struct {
	min  float64
	tier Tier
}

// Ordered high to low; the first threshold the value reaches wins.
var (
	skillerThresholds = []threshold{
		{500_000_000, TierZenyte},
		{150_000_000, TierOnyx},
		{90_000_000, TierDragonstone},
		{40_000_000, TierDiamond},
		{15_000_000, TierRuby},
		{8_000_000, TierEmerald},
		{3_000_000, TierSapphire},
	}
	fighterThresholds = []threshold{
		{1500, TierTzkal},
		{1300, TierMonarch},
		{1100, TierSenator},
		{900, TierExecutive},
		{700, TierSuperior},
		{500, TierSupervisor},
		{300, TierLeader},
		{100, TierPrefect},
	}
)

// SkillerTiers lists skiller tiers low to high.
var SkillerTiers = []Tier{TierOpal, TierSapphire, TierEmerald, TierRuby, TierDiamond, TierDragonstone, TierOnyx, TierZenyte}

// FighterTiers lists fighter tiers low to high.
var FighterTiers = []Tier{TierMentor, TierPrefect, TierLeader, TierSupervisor, TierSuperior, TierExecutive, TierSenator, TierMonarch, TierTzkal}

// Classify returns the tier a value earns on the category's ladder.
// Unknown categories classify to the empty tier.
func Classify(category Category, value float64) Tier {
	var table []threshold
	var floor Tier
	switch category {
	case CategorySkiller:
		table, floor = skillerThresholds, TierOpal
	case CategoryFighter:
		table, floor = fighterThresholds, TierMentor
	default:
		return ""
	}
	for _, t := range table {
		if value >= t.min {
			return t.tier
		}
	}
	return floor
}

// Role is a parsed free-text role label.
type Role struct {
	Category Category
	Tier     Tier
}

// ParseRole finds the tier name contained in a role label. Matching is a
// case-insensitive substring test; labels naming no known tier are Unknown.
func ParseRole(label string) Role {
	lower := strings.ToLower(label)
	// Highest first so labels that mention two tiers resolve upward.
	for i := len(SkillerTiers) - 1; i >= 0; i-- {
		if strings.Contains(lower, string(SkillerTiers[i])) {
			return Role{Category: CategorySkiller, Tier: SkillerTiers[i]}
		}
	}
	for i := len(FighterTiers) - 1; i >= 0; i-- {
		if strings.Contains(lower, string(FighterTiers[i])) {
			return Role{Category: CategoryFighter, Tier: FighterTiers[i]}
		}
	}
	return Role{}
}

// Stats are the numbers the classifier needs from a character.
type Stats struct {
	Name              string
	Role              string
	EHB               float64
	CurrentExperience int64
	InitialExperience int64
}

// ClanExperience is experience gained since joining the clan.
func (s Stats) ClanExperience() int64 {
	return s.CurrentExperience - s.InitialExperience
}

func (s Stats) valueFor(category Category) float64 {
	if category == CategoryFighter {
		return s.EHB
	}
	return float64(s.ClanExperience())
}

// Evaluation is the outcome of checking a character's role against its stats.
type Evaluation struct {
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	CurrentTier    Tier     `json:"currentTier"`
	ExpectedTier   Tier     `json:"expectedTier"`
	HasCorrectTier bool     `json:"hasCorrectTier"`
	Priority       int      `json:"priority"`
}

// Priorities used to order mismatches.
const (
	PriorityNone          = 0
	PriorityTierMismatch  = 2
	PriorityWrongCategory = 3
)

// Evaluate compares the role label against the tier the stats earn.
func Evaluate(s Stats) Evaluation {
	role := ParseRole(s.Role)
	eval := Evaluation{Name: s.Name, Category: role.Category, CurrentTier: role.Tier, HasCorrectTier: true}
	if role.Category == CategoryUnknown {
		return eval
	}
	eval.ExpectedTier = Classify(role.Category, s.valueFor(role.Category))
	eval.HasCorrectTier = strings.Contains(strings.ToLower(s.Role), string(eval.ExpectedTier))
	eval.Priority = priority(role.Category, eval.HasCorrectTier, s)
	return eval
}

// IndicatedCategory is the ladder the stats point to. A character sitting on
// the floor of its own ladder while above the floor of the other ladder
// belongs on the other ladder; otherwise the current category stands.
func IndicatedCategory(current Category, s Stats) Category {
	switch current {
	case CategorySkiller:
		if Classify(CategorySkiller, s.valueFor(CategorySkiller)) == TierOpal &&
			Classify(CategoryFighter, s.EHB) != TierMentor {
			return CategoryFighter
		}
	case CategoryFighter:
		if Classify(CategoryFighter, s.EHB) == TierMentor &&
			Classify(CategorySkiller, s.valueFor(CategorySkiller)) != TierOpal {
			return CategorySkiller
		}
	}
	return current
}

// priority only orders mismatches; a correct tier is never ranked, even when
// the stats lean towards the other ladder.
func priority(current Category, correct bool, s Stats) int {
	switch {
	case correct:
		return PriorityNone
	case IndicatedCategory(current, s) != current:
		return PriorityWrongCategory
	default:
		return PriorityTierMismatch
	}
}

// NeedsAttention reports whether an evaluation belongs in the admin alert list.
func (e Evaluation) NeedsAttention() bool {
	return !e.HasCorrectTier
}

// Less orders evaluations by priority descending, then name ascending.
func Less(a, b Evaluation) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Name < b.Name
}

// SortMismatches sorts evals in place using Less.
func SortMismatches(evals []Evaluation) {
	sort.SliceStable(evals, func(i, j int) bool { return Less(evals[i], evals[j]) })
}

// Toggle returns the tier the character would hold on the other ladder.
// Unknown categories have no other ladder and return an empty Role.
func Toggle(s Stats) Role {
	switch ParseRole(s.Role).Category {
	case CategorySkiller:
		return Role{Category: CategoryFighter, Tier: Classify(CategoryFighter, s.EHB)}
	case CategoryFighter:
		return Role{Category: CategorySkiller, Tier: Classify(CategorySkiller, float64(s.ClanExperience()))}
	default:
		return Role{}
	}
}

// Label renders the tier as a role label, e.g. "Supervisor".
func (t Tier) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}
