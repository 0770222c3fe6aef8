package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/llm/llmtest"
	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}

const portfolioCSV = `Techstack,Links
"React, Node.js, MongoDB",https://example.com/react-portfolio
"Python, Django, PostgreSQL",https://example.com/python-portfolio
"Swift, iOS, Xcode",https://example.com/ios-portfolio
`

const jobsReply = `Here you go:
[{"role": "Backend Engineer", "experience": "3 years", "skills": ["Python", "Django"], "description": "Build APIs."}]`

// resetGlobals clears flag-bound state shared between command runs
func resetGlobals(t *testing.T) {
	t.Helper()
	configPath, apiKeyFlag, verboseFlag = "", "", false
	flagValues = config.Config{}
	extractInputFile, extractOutputFile, extractPretty = "", "", false
	mailJobFile, mailNoLinks = "", false
	runInputFile, runOutputFile = "", ""
	queryLinksJSON = false
	setKeyDelete = false
}

// scriptLLM makes every command use fake instead of Gemini
func scriptLLM(t *testing.T, fake *llmtest.Scripted) {
	t.Helper()
	orig := newLLMClient
	newLLMClient = func(_ context.Context, _ *llm.Config, apiKey string) (llm.Client, error) {
		if apiKey == "" {
			return nil, errors.New("empty key")
		}
		return fake, nil
	}
	t.Cleanup(func() { newLLMClient = orig })
}

// workspace writes a portfolio table and returns the common storage flags
func workspace(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "my_portfolio.csv")
	require.NoError(t, os.WriteFile(source, []byte(portfolioCSV), 0644))
	return dir, []string{
		"--portfolio", source,
		"--persist-dir", filepath.Join(dir, "vectorstore"),
		"--embedder", "hashing",
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadSettings_Precedence(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	configPath = filepath.Join(dir, "outreach.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("embedder: hashing\nresults_per_skill: 5\nsender_name: Priya\n"), 0644))
	flagValues.ResultsPerSkill = 3

	cfg, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ResultsPerSkill, "flag wins over file")
	assert.Equal(t, "hashing", cfg.Embedder, "file wins over default")
	assert.Equal(t, "Priya", cfg.SenderName)
	assert.Equal(t, config.DefaultSourcePath, cfg.SourcePath)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoadSettings_Invalid(t *testing.T) {
	resetGlobals(t)
	flagValues.Backend = "redis"

	_, err := loadSettings()
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "backend", cfgErr.Field)
}

func TestLoadSettings_MissingConfigFile(t *testing.T) {
	resetGlobals(t)
	configPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := loadSettings()
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config", cfgErr.Field)
}

func TestExtractJobs_FromStdin(t *testing.T) {
	resetGlobals(t)
	fake := llmtest.New(jobsReply)
	scriptLLM(t, fake)

	stdout, _, err := execute(t, "Careers\nBackend Engineer\nPython, Django", "extract-jobs", "--in", "-", "--api-key", "test-key")
	require.NoError(t, err)

	var jobs []types.JobPosting
	require.NoError(t, json.Unmarshal([]byte(stdout), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Role)
	assert.Equal(t, types.StringList{"Python", "Django"}, jobs[0].Skills)
	assert.Contains(t, fake.Prompts[0], "Backend Engineer")
	assert.True(t, fake.Closed)
}

func TestExtractJobs_RequiresInput(t *testing.T) {
	resetGlobals(t)
	_, _, err := execute(t, "", "extract-jobs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--in is required")
}

func TestRun_EndToEnd(t *testing.T) {
	resetGlobals(t)
	dir, storage := workspace(t)
	fake := llmtest.New(jobsReply, "Dear Hiring Manager,\nSee https://example.com/python-portfolio")
	scriptLLM(t, fake)

	input := filepath.Join(dir, "careers.txt")
	require.NoError(t, os.WriteFile(input, []byte("We are hiring a Backend Engineer"), 0644))
	out := filepath.Join(dir, "result.json")

	args := append([]string{"run", "--in", input, "--out", out, "--api-key", "test-key"}, storage...)
	_, stderr, err := execute(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Drafted 1 of 1 emails")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result struct {
		Drafts []types.Draft `json:"drafts"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Drafts, 1)
	assert.Contains(t, result.Drafts[0].Email, "Dear Hiring Manager")
	assert.Contains(t, result.Drafts[0].Links.Links(), "https://example.com/python-portfolio")

	require.Len(t, fake.Prompts, 2)
	assert.Contains(t, fake.Prompts[1], "https://example.com/python-portfolio")
}

func TestRun_ReportsFailedDrafts(t *testing.T) {
	resetGlobals(t)
	dir, storage := workspace(t)
	fake := llmtest.New(jobsReply).Queue(llmtest.Reply{Err: &llm.ProviderError{Kind: llm.KindInvalidRequest, Message: "blocked"}})
	scriptLLM(t, fake)

	input := filepath.Join(dir, "careers.txt")
	require.NoError(t, os.WriteFile(input, []byte("We are hiring"), 0644))

	args := append([]string{"run", "--in", input, "--api-key", "test-key"}, storage...)
	stdout, _, err := execute(t, "", args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 drafts failed")
	assert.Contains(t, stdout, "Error: email drafting failed")
}

func TestQueryLinks_JSON(t *testing.T) {
	resetGlobals(t)
	_, storage := workspace(t)

	args := append([]string{"query-links", "--json", "Python, iOS"}, storage...)
	stdout, _, err := execute(t, "", args...)
	require.NoError(t, err)

	var result types.LinkQueryResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result, 2)
	assert.Equal(t, "https://example.com/python-portfolio", result[0][0][types.MetadataKeyLinks])
	assert.Equal(t, "https://example.com/ios-portfolio", result[1][0][types.MetadataKeyLinks])
	assert.Len(t, result[0], 2)
}

func TestLoadPortfolio_Idempotent(t *testing.T) {
	resetGlobals(t)
	_, storage := workspace(t)

	args := append([]string{"load-portfolio"}, storage...)
	stdout, _, err := execute(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 entries")

	stdout, _, err = execute(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 entries")
}

func TestLoadPortfolio_MissingTable(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()

	_, _, err := execute(t, "", "load-portfolio", "--embedder", "hashing",
		"--portfolio", filepath.Join(dir, "nope.csv"), "--persist-dir", filepath.Join(dir, "vs"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteMail_NoLinks(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	jobFile := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(jobFile, []byte(`{"role":"SRE","experience":5,"skills":"Go, Kubernetes","description":"Run things"}`), 0644))
	fake := llmtest.New("Dear team,")
	scriptLLM(t, fake)

	stdout, _, err := execute(t, "", "write-mail", "--job", jobFile, "--no-links", "--api-key", "test-key")
	require.NoError(t, err)
	assert.Equal(t, "Dear team,\n", stdout)
	assert.Contains(t, fake.Prompts[0], "Skills: Go, Kubernetes")
	assert.Contains(t, fake.Prompts[0], "Experience: 5")
}

func TestSetKey(t *testing.T) {
	resetGlobals(t)
	var stored string
	origStore := keyringStore
	keyringStore = func(key string) error { stored = key; return nil }
	t.Cleanup(func() { keyringStore = origStore })

	stdout, _, err := execute(t, "  secret-key \n", "set-key")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", stored)
	assert.Contains(t, stdout, config.KeyringService)
}

func TestSetKey_Delete(t *testing.T) {
	resetGlobals(t)
	deleted := false
	origDelete := keyringDelete
	keyringDelete = func() error { deleted = true; return nil }
	t.Cleanup(func() { keyringDelete = origDelete })

	_, _, err := execute(t, "", "set-key", "--delete")
	require.NoError(t, err)
	assert.True(t, deleted)
}
