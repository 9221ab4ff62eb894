package domain

import "errors"

var (
	// ErrUnknownModule signals a module name outside the registry.
	ErrUnknownModule = errors.New("unknown module")
	// ErrModuleNotPermitted signals a module request outside the caller's permitted set.
	ErrModuleNotPermitted = errors.New("module not permitted")
	// ErrEntityNotFound signals a missing relational entity.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrDocumentNotFound signals a missing index document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnmappableEntity signals an entity type the mapper cannot project.
	ErrUnmappableEntity = errors.New("unmappable entity")
	// ErrInvalidRequest signals a malformed search request.
	ErrInvalidRequest = errors.New("invalid request")
)
