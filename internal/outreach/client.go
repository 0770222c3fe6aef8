// Package outreach turns careers-page text into job postings and drafts cold
// emails for them with a language model.
package outreach

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/parsing"
	"github.com/jonathan/outreach-agent/internal/prompts"
	"github.com/jonathan/outreach-agent/internal/types"
)

const promptFile = "outreach.json"

// Persona is the sender the drafted emails speak for
type Persona struct {
	Name    string
	Title   string
	Company string
	Pitch   string
}

// DefaultPersona is used when no persona option is given
var DefaultPersona = Persona{
	Name:    "Mohan",
	Title:   "business development executive",
	Company: "AtliQ",
	Pitch:   "an AI & Software Consulting firm",
}

// Client extracts job postings and writes emails. It holds no state besides
// its configuration and is safe for concurrent use if the llm.Client is.
type Client struct {
	llm     llm.Client
	tier    llm.ModelTier
	persona Persona
	strict  bool
	log     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTier selects the model tier used for both calls
func WithTier(tier llm.ModelTier) Option {
	return func(c *Client) { c.tier = tier }
}

// WithPersona sets the email sender. Empty fields keep their defaults.
func WithPersona(p Persona) Option {
	return func(c *Client) {
		if p.Name != "" {
			c.persona.Name = p.Name
		}
		if p.Title != "" {
			c.persona.Title = p.Title
		}
		if p.Company != "" {
			c.persona.Company = p.Company
		}
		if p.Pitch != "" {
			c.persona.Pitch = p.Pitch
		}
	}
}

// WithStrictSchema validates extracted postings against the JSON Schema
func WithStrictSchema(strict bool) Option {
	return func(c *Client) { c.strict = strict }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Client that calls client for every operation
func New(client llm.Client, opts ...Option) *Client {
	c := &Client{
		llm:     client,
		tier:    llm.TierStandard,
		persona: DefaultPersona,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Persona returns the configured sender
func (c *Client) Persona() Persona {
	return c.persona
}

// ExtractJobs asks the model for the job postings in cleanedText and recovers
// them from its reply. Provider failures come back as *llm.ProviderError;
// unusable output as *parsing.ParseError.
func (c *Client) ExtractJobs(ctx context.Context, cleanedText string) ([]types.JobPosting, error) {
	prompt, err := prompts.MustLookup(promptFile, "extract-jobs").Render(map[string]string{
		"PageData": cleanedText,
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.llm.GenerateContent(ctx, prompt, c.tier)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	c.log.Debug("extraction reply received", "bytes", len(raw), "model", c.llm.GetModel(c.tier))

	data, err := parsing.RecoverJSON(raw)
	if err != nil {
		c.log.Debug("extraction reply unusable", "error", err)
		return nil, err
	}

	if c.strict {
		if err := parsing.CheckJobPostingsSchema(data, raw); err != nil {
			return nil, err
		}
	}

	jobs, err := parsing.DecodeJobPostings(data, raw)
	if err != nil {
		return nil, err
	}

	c.log.Debug("jobs extracted", "count", len(jobs))
	return jobs, nil
}

// WriteMail drafts a cold email for job that cites links. The model's reply
// is returned unmodified.
func (c *Client) WriteMail(ctx context.Context, job types.JobPosting, links types.LinkQueryResult) (string, error) {
	prompt, err := prompts.MustLookup(promptFile, "write-mail").Render(map[string]string{
		"JobDescription": job.String(),
		"LinkList":       formatLinks(links),
		"SenderName":     c.persona.Name,
		"SenderTitle":    c.persona.Title,
		"SenderCompany":  c.persona.Company,
		"CompanyPitch":   c.persona.Pitch,
	})
	if err != nil {
		return "", err
	}

	email, err := c.llm.GenerateContent(ctx, prompt, c.tier)
	if err != nil {
		return "", err
	}

	c.log.Debug("email drafted", "role", job.Role, "bytes", len(email))
	return email, nil
}

func formatLinks(links types.LinkQueryResult) string {
	flat := links.Links()
	if len(flat) == 0 {
		return "[]"
	}
	return "[" + strings.Join(flat, ", ") + "]"
}
