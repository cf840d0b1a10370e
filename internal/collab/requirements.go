package collab

import "strings"

// ValidateRequirements checks buyer-supplied answers against a project's
// requirement prompts: every prompt index must have a non-blank answer.
// All unmet indices are collected before failing, so the caller can report
// every missing field at once instead of one per round trip.
func ValidateRequirements(prompts []string, answers map[int]string) error {
	var missing []int
	for i := range prompts {
		if strings.TrimSpace(answers[i]) == "" {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Missing: missing}
	}
	return nil
}

// FilterAnswers keeps only the answers addressed to an actual prompt index.
// Stray keys outside [0, len(prompts)) are dropped, never stored.
func FilterAnswers(prompts []string, answers map[int]string) map[int]string {
	if len(prompts) == 0 {
		return nil
	}
	out := make(map[int]string, len(prompts))
	for i := range prompts {
		if a, ok := answers[i]; ok {
			out[i] = a
		}
	}
	return out
}
