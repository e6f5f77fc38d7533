package model

import "errors"

var (
	// ErrInvalidClue marks malformed clue input. The wrapped message says why.
	ErrInvalidClue = errors.New("invalid clue")

	// ErrNoEntities means no graph resources were recognised in the clue.
	ErrNoEntities = errors.New("no entities recognised")

	// ErrNoSolutions means no candidate survived filtering.
	ErrNoSolutions = errors.New("no solutions found")

	// ErrKnowledgeBaseDisabled is reported by operations on a store whose
	// snapshot could not be loaded.
	ErrKnowledgeBaseDisabled = errors.New("knowledge base disabled")

	// ErrClosed is reported by operations submitted after shutdown.
	ErrClosed = errors.New("knowledge base closed")
)
