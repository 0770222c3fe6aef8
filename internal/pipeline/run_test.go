package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/outreach-agent/internal/embedding"
	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/llm/llmtest"
	"github.com/jonathan/outreach-agent/internal/outreach"
	"github.com/jonathan/outreach-agent/internal/portfolio"
	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/jonathan/outreach-agent/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter extracts a fixed set of jobs and fails mail for chosen roles
type fakeWriter struct {
	jobs       []types.JobPosting
	extractErr error
	mailErrs   map[string][]error
	mu         sync.Mutex
	mailCalls  map[string]int
	inFlight   atomic.Int32
	maxFlight  atomic.Int32
	mailDelay  time.Duration
}

func (f *fakeWriter) ExtractJobs(context.Context, string) ([]types.JobPosting, error) {
	return f.jobs, f.extractErr
}

func (f *fakeWriter) WriteMail(_ context.Context, job types.JobPosting, links types.LinkQueryResult) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxFlight.Load()
		if n <= m || f.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(f.mailDelay)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mailCalls == nil {
		f.mailCalls = map[string]int{}
	}
	call := f.mailCalls[job.Role]
	f.mailCalls[job.Role]++
	if errs := f.mailErrs[job.Role]; call < len(errs) && errs[call] != nil {
		return "", errs[call]
	}
	return fmt.Sprintf("Email for %s citing %s", job.Role, strings.Join(links.Links(), " ")), nil
}

type fakeLinks struct {
	failFor string
}

func (f *fakeLinks) QueryLinks(_ context.Context, skills []string) (types.LinkQueryResult, error) {
	out := types.LinkQueryResult{}
	for _, s := range skills {
		if s == f.failFor {
			return nil, errors.New("index unavailable")
		}
		out = append(out, []types.LinkMetadata{{types.MetadataKeyLinks: "https://example.com/" + strings.ToLower(s)}})
	}
	return out, nil
}

func jobs(roles ...string) []types.JobPosting {
	out := make([]types.JobPosting, len(roles))
	for i, r := range roles {
		out[i] = types.JobPosting{Role: r, Skills: types.StringList{r + "Skill"}}
	}
	return out
}

func TestRun_DraftsEveryPostingInOrder(t *testing.T) {
	w := &fakeWriter{jobs: jobs("A", "B", "C")}
	res, err := New(w, &fakeLinks{}, Options{}).Run(context.Background(), "text")
	require.NoError(t, err)

	require.Len(t, res.Drafts, 3)
	for i, role := range []string{"A", "B", "C"} {
		assert.Equal(t, role, res.Drafts[i].Job.Role)
		assert.Empty(t, res.Drafts[i].Err)
		assert.Contains(t, res.Drafts[i].Email, "https://example.com/"+strings.ToLower(role)+"skill")
	}
	assert.Equal(t, 0, res.Failed())
}

func TestRun_ExtractionFailureFailsRun(t *testing.T) {
	w := &fakeWriter{extractErr: &llm.ProviderError{Kind: llm.KindAuth, Message: "bad key"}}
	res, err := New(w, &fakeLinks{}, Options{}).Run(context.Background(), "text")
	require.Error(t, err)
	assert.Nil(t, res)

	var pe *llm.ProviderError
	assert.True(t, errors.As(err, &pe))
}

func TestRun_IsolatesFailingPosting(t *testing.T) {
	w := &fakeWriter{
		jobs:     jobs("A", "B", "C"),
		mailErrs: map[string][]error{"B": {&llm.ProviderError{Kind: llm.KindInvalidRequest, Message: "blocked"}}},
	}
	res, err := New(w, &fakeLinks{failFor: "CSkill"}, Options{}).Run(context.Background(), "text")
	require.NoError(t, err)

	assert.Empty(t, res.Drafts[0].Err)
	assert.NotEmpty(t, res.Drafts[0].Email)
	assert.Contains(t, res.Drafts[1].Err, "email drafting failed")
	assert.Contains(t, res.Drafts[2].Err, "link lookup failed")
	assert.Equal(t, 2, res.Failed())
}

func TestRun_RetriesTransientProviderErrors(t *testing.T) {
	transient := &llm.ProviderError{Kind: llm.KindRateLimit, Message: "slow down"}
	w := &fakeWriter{
		jobs:     jobs("A"),
		mailErrs: map[string][]error{"A": {transient, transient}},
	}
	res, err := New(w, &fakeLinks{}, Options{Retries: 2, RetryBase: time.Millisecond}).Run(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, res.Drafts[0].Err)
	assert.Equal(t, 3, w.mailCalls["A"])
}

func TestRun_DoesNotRetryPermanentErrors(t *testing.T) {
	w := &fakeWriter{
		jobs:     jobs("A"),
		mailErrs: map[string][]error{"A": {&llm.ProviderError{Kind: llm.KindAuth, Message: "bad key"}}},
	}
	res, err := New(w, &fakeLinks{}, Options{Retries: 3, RetryBase: time.Millisecond}).Run(context.Background(), "text")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Drafts[0].Err)
	assert.Equal(t, 1, w.mailCalls["A"])
}

func TestRun_NoRetriesByDefault(t *testing.T) {
	w := &fakeWriter{
		jobs:     jobs("A"),
		mailErrs: map[string][]error{"A": {&llm.ProviderError{Kind: llm.KindConnection, Message: "down"}}},
	}
	res, err := New(w, &fakeLinks{}, Options{}).Run(context.Background(), "text")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Drafts[0].Err)
	assert.Equal(t, 1, w.mailCalls["A"])
}

func TestRun_SequentialByDefault(t *testing.T) {
	w := &fakeWriter{jobs: jobs("A", "B", "C", "D"), mailDelay: 5 * time.Millisecond}
	_, err := New(w, &fakeLinks{}, Options{}).Run(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, int32(1), w.maxFlight.Load())
}

func TestRun_BoundedConcurrency(t *testing.T) {
	w := &fakeWriter{jobs: jobs("A", "B", "C", "D", "E", "F"), mailDelay: 10 * time.Millisecond}
	res, err := New(w, &fakeLinks{}, Options{Concurrency: 2}).Run(context.Background(), "text")
	require.NoError(t, err)
	assert.LessOrEqual(t, w.maxFlight.Load(), int32(2))
	for i, role := range []string{"A", "B", "C", "D", "E", "F"} {
		assert.Equal(t, role, res.Drafts[i].Job.Role)
	}
}

func TestRun_ReportsProgress(t *testing.T) {
	var mu sync.Mutex
	var steps []string
	opts := Options{OnProgress: func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		steps = append(steps, e.Step)
	}}

	_, err := New(&fakeWriter{jobs: jobs("A")}, &fakeLinks{}, opts).Run(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []string{StepExtract, StepLinks, StepMail}, steps)
}

func TestRun_NoPostings(t *testing.T) {
	res, err := New(&fakeWriter{jobs: []types.JobPosting{}}, &fakeLinks{}, Options{}).Run(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, res.Drafts)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&llm.ProviderError{Kind: llm.KindConnection}))
	assert.True(t, Retryable(fmt.Errorf("wrapped: %w", &llm.ProviderError{Kind: llm.KindRateLimit})))
	assert.False(t, Retryable(&llm.ProviderError{Kind: llm.KindAuth}))
	assert.False(t, Retryable(errors.New("plain")))
	assert.False(t, Retryable(nil))
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	source := filepath.Join(dir, "my_portfolio.csv")
	require.NoError(t, os.WriteFile(source, []byte(`Techstack,Links
"React, Node.js, MongoDB",https://example.com/react-portfolio
"Python, Django, PostgreSQL",https://example.com/python-portfolio
`), 0644))

	idx, err := vectorstore.OpenSQLite(ctx, filepath.Join(dir, "vectorstore"), "portfolio", embedding.NewHashing(0))
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	store, err := portfolio.Open(ctx, portfolio.Options{SourcePath: source, PersistDir: filepath.Join(dir, "vectorstore")}, idx)
	require.NoError(t, err)
	_, err = store.LoadIfEmpty(ctx)
	require.NoError(t, err)

	fake := llmtest.New(
		`[{"role": "Software Engineer", "experience": "2+ years", "skills": ["Python"], "description": "Build AI apps."}]`,
		"Dear Hiring Manager, see our work.",
	)

	res, err := New(outreach.New(fake), store, Options{}).Run(ctx, "careers page text")
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, "Dear Hiring Manager, see our work.", res.Drafts[0].Email)
	assert.Equal(t, "https://example.com/python-portfolio", res.Drafts[0].Links[0][0][types.MetadataKeyLinks])
	assert.Contains(t, fake.Prompts[1], "https://example.com/python-portfolio")
}
