package parsing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/outreach-agent/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobPostings(t *testing.T) {
	raw := `Here are the jobs:
{"role": "Backend Engineer", "experience": 3, "skills": "Go, Kafka", "description": "Own services."}
{"role": "Designer", "experience": "1 year", "skills": ["Figma"], "description": "Design."}`

	jobs, err := ParseJobPostings(raw)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Backend Engineer", jobs[0].Role)
	assert.Equal(t, "3", string(jobs[0].Experience))
	assert.Equal(t, []string{"Go", "Kafka"}, []string(jobs[0].Skills))
	assert.Equal(t, []string{"Figma"}, []string(jobs[1].Skills))
}

func TestParseJobPostings_EmptyArray(t *testing.T) {
	jobs, err := ParseJobPostings("[]")
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func TestDecodeJobPostings_ShapeMismatch(t *testing.T) {
	raw := `[{"role": "SRE", "skills": {"primary": "Go"}}]`
	_, err := DecodeJobPostings(json.RawMessage(raw), raw)
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, raw, parseErr.Excerpt)
}

func TestDecodeJobPostings_AllOrNothing(t *testing.T) {
	raw := `[{"role": "A", "skills": ["x"]}, {"role": ["not", "a", "string"]}]`
	jobs, err := DecodeJobPostings(json.RawMessage(raw), raw)
	assert.Error(t, err)
	assert.Nil(t, jobs)
}

func TestCheckJobPostingsSchema(t *testing.T) {
	valid := `[{"role": "A", "experience": "1 year", "skills": ["x"], "description": "d"}]`
	assert.NoError(t, CheckJobPostingsSchema(json.RawMessage(valid), valid))

	invalid := `[{"role": "A", "experience": "1 year", "skills": {"x": 1}, "description": "d"}]`
	err := CheckJobPostingsSchema(json.RawMessage(invalid), invalid)
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	var validationErr *schemas.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}
