package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequirementsAllAnswered(t *testing.T) {
	prompts := []string{"Brand name?", "Target audience?", "Deadline?"}
	answers := map[int]string{0: "Acme", 1: "SMBs", 2: "Next month"}
	assert.NoError(t, ValidateRequirements(prompts, answers))
}

func TestValidateRequirementsReportsAllMissing(t *testing.T) {
	prompts := []string{"Brand name?", "Target audience?", "Deadline?"}
	answers := map[int]string{1: "SMBs"}

	err := ValidateRequirements(prompts, answers)
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []int{0, 2}, missing.Missing)
}

func TestValidateRequirementsBlankAnswersCountAsMissing(t *testing.T) {
	prompts := []string{"Brand name?", "Target audience?"}
	answers := map[int]string{0: "   ", 1: "\t\n"}

	err := ValidateRequirements(prompts, answers)
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []int{0, 1}, missing.Missing)
}

func TestValidateRequirementsEmptyPromptList(t *testing.T) {
	assert.NoError(t, ValidateRequirements(nil, nil))
	assert.NoError(t, ValidateRequirements(nil, map[int]string{0: "stray"}))
}

func TestFilterAnswersDropsStrayIndices(t *testing.T) {
	prompts := []string{"Brand name?", "Target audience?"}
	answers := map[int]string{0: "Acme", 1: "SMBs", 7: "stray", -1: "stray"}

	assert.Equal(t, map[int]string{0: "Acme", 1: "SMBs"}, FilterAnswers(prompts, answers))
	assert.Nil(t, FilterAnswers(nil, answers))
}
