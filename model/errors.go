package model

import (
	"fmt"
	"strings"
)

type NotFoundError struct {
	Entity string
	Id     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Id)
}

type UnauthorizedError struct {
	Message string
}

func (e UnauthorizedError) Error() string {
	return e.Message
}

type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string {
	return e.Message
}

// FailedRule describes one guard condition that blocked a transition, with a
// message a caller can render directly.
type FailedRule struct {
	RuleId       string `json:"ruleId"`
	ErrorMessage string `json:"errorMessage"`
}

type ValidationError struct {
	Message     string
	FailedRules []FailedRule
}

func (e ValidationError) Error() string {
	if len(e.FailedRules) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.FailedRules))
	for _, r := range e.FailedRules {
		msgs = append(msgs, r.ErrorMessage)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(msgs, "; "))
}
