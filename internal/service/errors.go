package service

import "errors"

var (
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrProposalNotActive = errors.New("proposal is not active")
	ErrInvalidOption     = errors.New("selected option does not belong to proposal")
	ErrInvalidTransition = errors.New("invalid proposal status transition")
	ErrEmailTaken        = errors.New("user with this email already exists")
	ErrInvalidLogin      = errors.New("invalid credentials")
)
