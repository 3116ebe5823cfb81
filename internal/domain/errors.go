package domain

import "errors"

var (
	// ErrMappingMiss is returned when no marketplace config matches an event or resource
	ErrMappingMiss = errors.New("no marketplace mapping")

	// ErrExtractionFailure is returned when a field that is part of an entity identity cannot be extracted
	ErrExtractionFailure = errors.New("field extraction failed")

	// ErrCorrelationAmbiguous is returned when several write-set changes match a resource type and
	// there is no address to pick one of them
	ErrCorrelationAmbiguous = errors.New("ambiguous write-set correlation")

	// ErrMalformedPayload is returned when an event or resource payload is not valid JSON
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrTransientIO is returned when the store or the stream is temporarily unavailable
	ErrTransientIO = errors.New("transient io failure")

	// ErrCheckpointRegression is returned when a checkpoint advance does not move forward
	ErrCheckpointRegression = errors.New("checkpoint regression")

	// ErrOutOfOrderDelivery is returned when the stream delivers a version below one already dispatched
	ErrOutOfOrderDelivery = errors.New("out of order delivery")

	// ErrFatalConfig is returned when the marketplace configuration cannot be loaded
	ErrFatalConfig = errors.New("invalid marketplace configuration")
)
