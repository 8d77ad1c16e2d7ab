package rewards

import (
	"strings"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// SourceLearningModuleCompletion is the source whose amount is supplied by
// the learning hub (meta.mic_earned) rather than the base reward table.
const SourceLearningModuleCompletion = "learning_module_completion"

// DefaultSourceReward applies to sources missing from SourceRewards.
const DefaultSourceReward = 5

// SourceRewards maps a transaction source to its base reward in whole MIC.
var SourceRewards = map[string]int{
	"oaa_tutor_question":           2,
	"oaa_tutor_session_complete":   5,
	"reflection_entry_created":     3,
	"reflection_phase_complete":    5,
	"reflection_entry_complete":    10,
	"reflection_spark":             4,
	"reflection_geist_mode":        7,
	"reflection_epiphany":          12,
	"shield_module_complete":       15,
	"shield_checklist_item":        2,
	"civic_radar_action_taken":     5,
	SourceLearningModuleCompletion: 0,
}

// SourceReward returns the base reward for source.
func SourceReward(source string) int {
	if v, ok := SourceRewards[source]; ok {
		return v
	}
	return DefaultSourceReward
}

// ReasonForSource classifies a source string by prefix.
func ReasonForSource(source string) models.Reason {
	switch {
	case strings.HasPrefix(source, "learning"), strings.HasPrefix(source, "oaa"):
		return models.ReasonLearn
	case strings.HasPrefix(source, "reflection"):
		return models.ReasonReflection
	case strings.HasPrefix(source, "civic"), strings.HasPrefix(source, "shield"):
		return models.ReasonCivic
	default:
		return models.ReasonEarn
	}
}
