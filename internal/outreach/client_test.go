package outreach

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/llm/llmtest"
	"github.com/jonathan/outreach-agent/internal/parsing"
	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const careersText = "Careers at Acme. We are hiring a Software Engineer with 2+ years of Python."

func TestExtractJobs_ValidArray(t *testing.T) {
	fake := llmtest.New(`[{"role": "Software Engineer", "experience": "2+ years", "skills": ["Python", "AI"], "description": "Build AI apps."}]`)
	client := New(fake)

	jobs, err := client.ExtractJobs(context.Background(), careersText)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Software Engineer", jobs[0].Role)
	assert.Equal(t, types.StringList{"Python", "AI"}, jobs[0].Skills)

	require.Equal(t, 1, fake.Calls())
	assert.Contains(t, fake.Prompts[0], careersText)
	assert.Contains(t, fake.Prompts[0], "Respond with ONLY JSON")
	assert.Equal(t, llm.TierStandard, fake.Tiers[0])
}

func TestExtractJobs_SiblingObjectsWithPreamble(t *testing.T) {
	fake := llmtest.New("Sure! Here you go:\n" +
		`{"role": "A", "experience": "1 year", "skills": ["Go"], "description": "x"}` + "\n" +
		`{"role": "B", "experience": "3 years", "skills": ["Rust"], "description": "y"}`)

	jobs, err := New(fake).ExtractJobs(context.Background(), careersText)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "A", jobs[0].Role)
	assert.Equal(t, "B", jobs[1].Role)
}

func TestExtractJobs_Fenced(t *testing.T) {
	fake := llmtest.New("```json\n[{\"role\": \"A\", \"experience\": \"\", \"skills\": [], \"description\": \"\"}]\n```")

	jobs, err := New(fake).ExtractJobs(context.Background(), careersText)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestExtractJobs_NoJSON(t *testing.T) {
	fake := llmtest.New("I could not find any job postings on this page.")

	_, err := New(fake).ExtractJobs(context.Background(), careersText)
	var parseErr *parsing.ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestExtractJobs_ProviderErrorPassesThrough(t *testing.T) {
	providerErr := &llm.ProviderError{Kind: llm.KindAuth, Message: "invalid key"}
	fake := llmtest.New().Queue(llmtest.Reply{Err: providerErr})

	_, err := New(fake).ExtractJobs(context.Background(), careersText)
	var got *llm.ProviderError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, llm.KindAuth, got.Kind)
	assert.Equal(t, 1, fake.Calls(), "provider failures are not retried")
}

func TestExtractJobs_StrictRejectsObjectSkills(t *testing.T) {
	reply := `[{"role": "SRE", "experience": "5 years", "skills": {"primary": "Go"}, "description": "Ops."}]`

	_, err := New(llmtest.New(reply), WithStrictSchema(true)).ExtractJobs(context.Background(), careersText)
	var parseErr *parsing.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Message, "schema")
}

func TestExtractJobs_LenientAcceptsStringSkills(t *testing.T) {
	reply := `[{"role": "SRE", "experience": 5, "skills": "Go, Kubernetes", "description": "Ops."}]`

	jobs, err := New(llmtest.New(reply)).ExtractJobs(context.Background(), careersText)
	require.NoError(t, err)
	assert.Equal(t, types.StringList{"Go", "Kubernetes"}, jobs[0].Skills)
	assert.Equal(t, types.FlexString("5"), jobs[0].Experience)
}

func TestExtractJobs_WithTier(t *testing.T) {
	fake := llmtest.New("[]")
	_, err := New(fake, WithTier(llm.TierLite)).ExtractJobs(context.Background(), careersText)
	require.NoError(t, err)
	assert.Equal(t, llm.TierLite, fake.Tiers[0])
}

func TestWriteMail(t *testing.T) {
	fake := llmtest.New("Dear Hiring Manager,\n\nBest,\nMohan")
	client := New(fake)

	job := types.JobPosting{
		Role:        "Software Engineer",
		Experience:  "2+ years",
		Skills:      types.StringList{"Python"},
		Description: "Build AI apps.",
	}
	links := types.LinkQueryResult{
		{{types.MetadataKeyLinks: "https://example.com/python-portfolio"}},
	}

	email, err := client.WriteMail(context.Background(), job, links)
	require.NoError(t, err)
	assert.Equal(t, "Dear Hiring Manager,\n\nBest,\nMohan", email)

	prompt := fake.Prompts[0]
	assert.Contains(t, prompt, job.String())
	assert.Contains(t, prompt, "https://example.com/python-portfolio")
	assert.Contains(t, prompt, "You are Mohan, a business development executive at AtliQ")
	assert.NotContains(t, prompt, "{{.")
}

func TestWriteMail_ReturnsRawText(t *testing.T) {
	reply := "  Subject: Hello\n\nBody with trailing space  \n"
	email, err := New(llmtest.New(reply)).WriteMail(context.Background(), types.JobPosting{}, nil)
	require.NoError(t, err)
	assert.Equal(t, reply, email)
}

func TestWriteMail_CustomPersona(t *testing.T) {
	fake := llmtest.New("ok")
	client := New(fake, WithPersona(Persona{Name: "Priya", Company: "Initech"}))

	_, err := client.WriteMail(context.Background(), types.JobPosting{Role: "Analyst"}, nil)
	require.NoError(t, err)
	assert.Contains(t, fake.Prompts[0], "You are Priya, a business development executive at Initech")
	assert.Equal(t, "Priya", client.Persona().Name)
	assert.Equal(t, DefaultPersona.Pitch, client.Persona().Pitch)
}

func TestWriteMail_ProviderError(t *testing.T) {
	fake := llmtest.New().Queue(llmtest.Reply{Err: &llm.ProviderError{Kind: llm.KindConnection, Message: "unreachable"}})

	_, err := New(fake).WriteMail(context.Background(), types.JobPosting{}, nil)
	var got *llm.ProviderError
	assert.True(t, errors.As(err, &got))
}

func TestFormatLinks(t *testing.T) {
	assert.Equal(t, "[]", formatLinks(nil))
	links := types.LinkQueryResult{
		{{"links": "https://a.example"}, {"links": "https://b.example"}},
		{{"links": "https://a.example"}},
	}
	assert.Equal(t, "[https://a.example, https://b.example]", formatLinks(links))
}
