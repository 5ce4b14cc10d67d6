package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LoginRequest carries the credentials typed into the login form
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RosterRequest selects a class/section roster
type RosterRequest struct {
	Class   string `form:"class" json:"class" validate:"required"`
	Section string `form:"section" json:"section" validate:"required"`
}

// ScoreValue accepts a JSON number or a JSON string
type ScoreValue string

func (s *ScoreValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = ScoreValue(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("score must be a number or string: %w", err)
	}
	*s = ScoreValue(n.String())
	return nil
}

func (s ScoreValue) String() string { return string(s) }

// AddMarkRequest records one score for a student; Subject defaults to General
type AddMarkRequest struct {
	Score   ScoreValue `json:"score" validate:"required,score"`
	Subject string     `json:"subject"`
}

// BroadcastRequest sends one message to every student of a class/section
type BroadcastRequest struct {
	Message string `json:"message" validate:"required"`
	Class   string `json:"class" validate:"required"`
	Section string `json:"section" validate:"required"`
}

// AssignmentUploadRequest is the non-file part of the assignment form
type AssignmentUploadRequest struct {
	FileName string `json:"file_name" validate:"required"`
	Class    string `form:"class" json:"class" validate:"required"`
	Section  string `form:"section" json:"section" validate:"required"`
}
