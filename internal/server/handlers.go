package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/outreach-agent/internal/ingestion"
	"github.com/jonathan/outreach-agent/internal/pipeline"
	"github.com/jonathan/outreach-agent/internal/types"
)

// TextRequest carries careers-page content for /jobs/extract and /outreach
type TextRequest struct {
	Text string `json:"text"`
	// Format is "text" (default, already cleaned) or "html"
	Format string `json:"format,omitempty"`
}

// JobsResponse is the response for /jobs/extract
type JobsResponse struct {
	Jobs []types.JobPosting `json:"jobs"`
}

// LinksRequest is the request body for /portfolio/links
type LinksRequest struct {
	Skills []string `json:"skills"`
}

// LinksResponse is the response for /portfolio/links
type LinksResponse struct {
	Links types.LinkQueryResult `json:"links"`
	Flat  []string              `json:"flat"`
}

// MailRequest is the request body for /mail. When Links is omitted the
// links are looked up from the job's skills.
type MailRequest struct {
	Job   types.JobPosting      `json:"job"`
	Links types.LinkQueryResult `json:"links,omitempty"`
}

// MailResponse is the response for /mail
type MailResponse struct {
	Email string                `json:"email"`
	Links types.LinkQueryResult `json:"links"`
}

// decode reads a JSON body into v, bounded by maxBodyBytes
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if HTTPStatus(err) == http.StatusRequestEntityTooLarge {
			return err
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// cleanedText validates a TextRequest and returns the text to extract from
func (req *TextRequest) cleanedText() (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", &ErrValidation{Field: "text", Message: "is required"}
	}
	switch req.Format {
	case "", ingestion.FormatText:
		return req.Text, nil
	case ingestion.FormatHTML:
		text, err := ingestion.Ingest([]byte(req.Text), ingestion.FormatHTML)
		if err != nil {
			return "", &ErrValidation{Field: "text", Message: err.Error()}
		}
		return text, nil
	default:
		return "", &ErrValidation{Field: "format", Message: fmt.Sprintf("must be %q or %q", ingestion.FormatText, ingestion.FormatHTML)}
	}
}

// handleExtractJobs extracts job postings from careers-page text
func (s *Server) handleExtractJobs(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}
	text, err := req.cleanedText()
	if err != nil {
		s.failure(w, err)
		return
	}

	jobs, err := s.writer.ExtractJobs(r.Context(), text)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, JobsResponse{Jobs: jobs})
}

// handleQueryLinks returns portfolio links for a list of skills
func (s *Server) handleQueryLinks(w http.ResponseWriter, r *http.Request) {
	var req LinksRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}

	links, err := s.links.QueryLinks(r.Context(), req.Skills)
	if err != nil {
		s.failure(w, err)
		return
	}
	flat := links.Links()
	if flat == nil {
		flat = []string{}
	}
	s.jsonResponse(w, http.StatusOK, LinksResponse{Links: links, Flat: flat})
}

// handleWriteMail drafts one email
func (s *Server) handleWriteMail(w http.ResponseWriter, r *http.Request) {
	var req MailRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}
	if strings.TrimSpace(req.Job.Role) == "" {
		s.failure(w, &ErrValidation{Field: "job.role", Message: "is required"})
		return
	}

	links := req.Links
	if links == nil {
		var err error
		if links, err = s.links.QueryLinks(r.Context(), req.Job.Skills); err != nil {
			s.failure(w, err)
			return
		}
	}

	email, err := s.writer.WriteMail(r.Context(), req.Job, links)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, MailResponse{Email: email, Links: links})
}

// handleOutreach runs the whole pipeline and returns every draft
func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}
	text, err := req.cleanedText()
	if err != nil {
		s.failure(w, err)
		return
	}

	result, err := pipeline.New(s.writer, s.links, s.pipeOpts).Run(r.Context(), text)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleOutreachStream runs the pipeline and streams progress as SSE
func (s *Server) handleOutreachStream(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}
	text, err := req.cleanedText()
	if err != nil {
		s.failure(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.pipeOpts
	opts.OnProgress = sse.Progress

	result, err := pipeline.New(s.writer, s.links, opts).Run(r.Context(), text)
	if err != nil {
		sse.WriteError(err.Error(), errorCode(err))
		return
	}
	sse.WriteComplete(result)
}
