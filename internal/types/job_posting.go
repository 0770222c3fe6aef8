// Package types provides type definitions for structured data used throughout the outreach-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// JobPosting represents a single job listing extracted from careers-page text
type JobPosting struct {
	Role        string     `json:"role"`
	Experience  FlexString `json:"experience"`
	Skills      StringList `json:"skills"`
	Description string     `json:"description"`
}

// String renders the posting as plain text for embedding in prompts.
// It never fails, whatever the field contents.
func (j JobPosting) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role: %s\n", j.Role))
	sb.WriteString(fmt.Sprintf("Experience: %s\n", string(j.Experience)))
	sb.WriteString(fmt.Sprintf("Skills: %s\n", strings.Join(j.Skills, ", ")))
	sb.WriteString(fmt.Sprintf("Description: %s", j.Description))
	return sb.String()
}

// FlexString decodes from a JSON string, number or bool. Models frequently
// return experience as a bare number of years.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlexString(fmt.Sprintf("%t", b))
		return nil
	}
	return fmt.Errorf("experience: expected string or number, got %s", truncate(string(data), 40))
}

// StringList decodes from a JSON array of strings or from a single
// comma-separated string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = SplitList(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("skills: expected array of strings: %w", err)
	}
	*l = items
	return nil
}

// SplitList splits a comma-separated list, trimming blanks and dropping empties
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
