package oauthmodel

import "errors"

var (
	ErrEmptyParameterKey = errors.New("extra parameter key must not be empty")
	ErrReservedParameter = errors.New("extra parameter is set by the agent")
)
