package core

import (
	"fmt"
	"sort"
	"time"

	"hubclean/internal/types"
)

const hoursPerDay = 24

// EvaluateTags ranks tags newest-first and decides, per tag, whether it falls
// inside the retention policy. Eligible tags come back with OutcomeDeleted;
// actually deleting them (and downgrading to OutcomeDeleteFailed) is the
// caller's responsibility. The function performs no I/O.
func EvaluateTags(tags []types.Tag, policy types.RetentionPolicy, now time.Time) []types.TagDecision {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	excluded := excludeSet(policy.ExcludeTags)

	ordered := append([]types.Tag(nil), tags...)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].LastUpdated.Equal(ordered[j].LastUpdated) {
			return ordered[i].LastUpdated.After(ordered[j].LastUpdated)
		}
		return ordered[i].Name < ordered[j].Name
	})

	decisions := make([]types.TagDecision, 0, len(ordered))
	for rank, tag := range ordered {
		decisions = append(decisions, evaluateTag(tag, rank, policy, excluded, now))
	}
	return decisions
}

func evaluateTag(tag types.Tag, rank int, policy types.RetentionPolicy, excluded map[string]struct{}, now time.Time) types.TagDecision {
	decision := types.TagDecision{
		Tag:     tag.Name,
		Rank:    rank,
		AgeDays: ageDays(tag.LastUpdated, now),
	}
	if _, ok := excluded[tag.Name]; ok {
		decision.Outcome = types.OutcomeKeptExcluded
		decision.Reason = fmt.Sprintf("excluded tag %q", tag.Name)
		return decision
	}
	if rank < policy.KeepLastN {
		decision.Outcome = types.OutcomeKeptRecent
		decision.Reason = fmt.Sprintf("rank %d within keep-last-%d window", rank+1, policy.KeepLastN)
		return decision
	}
	if tag.LastUpdated.IsZero() {
		decision.Outcome = types.OutcomeKeptTooYoung
		decision.Reason = "no last-updated timestamp, keeping to be safe"
		return decision
	}
	if decision.AgeDays < policy.MinAgeDays {
		decision.Outcome = types.OutcomeKeptTooYoung
		decision.Reason = fmt.Sprintf("rank %d beyond window but only %dd old (min %dd)", rank+1, decision.AgeDays, policy.MinAgeDays)
		return decision
	}
	decision.Outcome = types.OutcomeDeleted
	decision.Reason = fmt.Sprintf("rank %d beyond keep=%d, age %dd (min %dd)", rank+1, policy.KeepLastN, decision.AgeDays, policy.MinAgeDays)
	return decision
}

func ageDays(lastUpdated time.Time, now time.Time) int {
	if lastUpdated.IsZero() {
		return 0
	}
	age := now.Sub(lastUpdated)
	days := int(age.Hours() / hoursPerDay)
	if age < 0 && age.Hours()/hoursPerDay != float64(days) {
		days--
	}
	return days
}

func excludeSet(values []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, value := range values {
		if value == "" {
			continue
		}
		set[value] = struct{}{}
	}
	return set
}
