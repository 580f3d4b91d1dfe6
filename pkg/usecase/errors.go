package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for pipeline execution
var (
	ErrServiceInvocation = goerr.New("analysis service invocation failed")
	ErrEmptyEventStream  = goerr.New("analysis service returned no events")
)
