package parsing

import (
	"encoding/json"

	"github.com/jonathan/outreach-agent/internal/schemas"
	"github.com/jonathan/outreach-agent/internal/types"
)

// ParseJobPostings recovers and decodes job postings from raw model output
func ParseJobPostings(raw string) ([]types.JobPosting, error) {
	data, err := RecoverJSON(raw)
	if err != nil {
		return nil, err
	}
	return DecodeJobPostings(data, raw)
}

// DecodeJobPostings decodes a recovered JSON array into job postings.
// raw is the original model output, kept for the error excerpt.
func DecodeJobPostings(data json.RawMessage, raw string) ([]types.JobPosting, error) {
	var jobs []types.JobPosting
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, newParseError("model output does not match the job posting shape", raw, err)
	}
	if jobs == nil {
		jobs = []types.JobPosting{}
	}
	return jobs, nil
}

// CheckJobPostingsSchema validates a recovered array against the job postings
// JSON Schema. Violations are returned as a *ParseError.
func CheckJobPostingsSchema(data json.RawMessage, raw string) error {
	if err := schemas.ValidateJobPostings(data); err != nil {
		return newParseError("model output violates the job posting schema", raw, err)
	}
	return nil
}
