package domain

import "errors"

var (
	ErrValidationRejected = errors.New("input rejected in collecting state")
	ErrDeliveryFailed     = errors.New("outbound delivery failed")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrDialogNotFound     = errors.New("dialog not found")
	ErrDialogOpen         = errors.New("dialog is still open")
	ErrNoRecipient        = errors.New("no recipients to deliver to")
	ErrUnknownIntent      = errors.New("unknown callback intent")
)
