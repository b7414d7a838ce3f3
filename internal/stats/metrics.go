package stats

import "sort"

// SkillMetrics are the skill names the statistics service reports.
var SkillMetrics = []string{
	"overall", "attack", "defence", "strength", "hitpoints", "ranged", "prayer", "magic",
	"cooking", "woodcutting", "fletching", "fishing", "firemaking", "crafting", "smithing",
	"mining", "herblore", "agility", "thieving", "slayer", "farming", "runecrafting",
	"hunter", "construction", "sailing",
}

// BossMetrics are the boss names the statistics service reports.
var BossMetrics = []string{
	"abyssal_sire", "alchemical_hydra", "amoxliatl", "araxxor", "artio", "barrows_chests",
	"bryophyta", "callisto", "calvarion", "cerberus", "chambers_of_xeric",
	"chambers_of_xeric_challenge_mode", "chaos_elemental", "chaos_fanatic", "commander_zilyana",
	"corporeal_beast", "crazy_archaeologist", "dagannoth_prime", "dagannoth_rex",
	"dagannoth_supreme", "deranged_archaeologist", "duke_sucellus", "general_graardor",
	"giant_mole", "grotesque_guardians", "hespori", "kalphite_queen", "king_black_dragon",
	"kraken", "kreearra", "kril_tsutsaroth", "lunar_chests", "mimic", "nex", "nightmare",
	"phosanis_nightmare", "obor", "phantom_muspah", "sarachnis", "scorpia", "scurrius",
	"skotizo", "sol_heredit", "spindel", "tempoross", "the_gauntlet", "the_corrupted_gauntlet",
	"the_hueycoatl", "the_leviathan", "the_royal_titans", "the_whisperer", "theatre_of_blood",
	"theatre_of_blood_hard_mode", "thermonuclear_smoke_devil", "tombs_of_amascut",
	"tombs_of_amascut_expert", "tzkal_zuk", "tztok_jad", "vardorvis", "venenatis", "vetion",
	"vorkath", "wintertodt", "zalcano", "zulrah",
}

var metricIndex = buildIndex()

func buildIndex() map[MetricType]map[string]struct{} {
	idx := map[MetricType]map[string]struct{}{
		MetricTypeSkill: make(map[string]struct{}, len(SkillMetrics)),
		MetricTypeBoss:  make(map[string]struct{}, len(BossMetrics)),
	}
	for _, m := range SkillMetrics {
		idx[MetricTypeSkill][m] = struct{}{}
	}
	for _, m := range BossMetrics {
		idx[MetricTypeBoss][m] = struct{}{}
	}
	return idx
}

// ValidMetric reports whether metric is a known name for the type. Matching is exact.
func ValidMetric(t MetricType, metric string) bool {
	names, ok := metricIndex[t]
	if !ok {
		return false
	}
	_, ok = names[metric]
	return ok
}

// Metrics returns a sorted copy of the metric names for a type.
func Metrics(t MetricType) []string {
	names := metricIndex[t]
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
