package util

import "errors"

var (
	ErrCadetNotFound       = errors.New("cadet not found")
	ErrCadetArchived       = errors.New("cadet record is archived")
	ErrBatchNotFound       = errors.New("batch not found")
	ErrBatchExists         = errors.New("batch already exists")
	ErrBatchRequired       = errors.New("batch code required for a new cadet")
	ErrBatchCodeBlank      = errors.New("batch code must not be blank")
	ErrBatchMismatch       = errors.New("cadet belongs to another batch")
	ErrInvalidScore        = errors.New("score must be within 0..100")
	ErrRequirementsNotMet  = errors.New("promotion requirements not met")
	ErrCertificationLevel  = errors.New("certification level above current level")
	ErrProgressUnavailable = errors.New("progress data unavailable")
	ErrArchiveNotFound     = errors.New("archive snapshot not found")
)
