package journal

import (
	"errors"
	"fmt"

	"github.com/ssargent/stash/pkg/codec"
)

// Errors returned while compiling a schema, recording calls and replaying logs
var (
	// ErrHashCollision is returned by Compile when two methods share an identity.
	ErrHashCollision = errors.New("journal: method identity collision")
	// ErrInvalidSignature is returned by Compile for a malformed signature.
	ErrInvalidSignature = errors.New("journal: invalid signature")
	// ErrBusy is returned for a call made while the journal is recording or replaying.
	ErrBusy = errors.New("journal: busy")
	// ErrUnknownMethod reports a logged identity with no method in the schema.
	ErrUnknownMethod = fmt.Errorf("journal: unknown method identity: %w", codec.ErrCorrupt)
	// ErrInvalidArgument is codec.ErrInvalidArgument.
	ErrInvalidArgument = codec.ErrInvalidArgument
	// ErrCorrupt is codec.ErrCorrupt.
	ErrCorrupt = codec.ErrCorrupt
)
