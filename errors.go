package modscan

import (
	"errors"

	"github.com/GoCodeAlone/modscan/discovery"
)

// Builder errors
var (
	// ErrArgument reports nil or otherwise invalid input.
	ErrArgument = discovery.ErrArgument
	// ErrContract reports an unusable discovery contract or a discovered
	// type that is not a Module.
	ErrContract = discovery.ErrContract

	ErrAlreadyBuilt          = errors.New("builder has already been built")
	ErrNoPendingRegistration = errors.New("no pending registration to attach a predicate to")
	ErrNestedBuild           = errors.New("module builders are built by their parent")
	ErrRegistrationFailed    = errors.New("registration failed")
	ErrLoggerNotSet          = errors.New("logger not set")
)
