package resource

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/sharedptr/errors"
)

// WASI preview2 resource types commonly shared between host components.
var (
	WASIPollable             = NewResourceType("pollable")
	WASIInputStream          = NewResourceType("input-stream")
	WASIOutputStream         = NewResourceType("output-stream")
	WASIError                = NewResourceType("error")
	WASIDescriptor           = NewResourceType("descriptor")
	WASIDirectoryEntryStream = NewResourceType("directory-entry-stream")
	WASINetwork              = NewResourceType("network")
	WASITCPSocket            = NewResourceType("tcp-socket")
	WASIUDPSocket            = NewResourceType("udp-socket")
)

// NewResourceType returns a WIT resource type definition with the given name.
// Table lookups compare definitions by identity, so create each type once.
func NewResourceType(name string) *wit.TypeDef {
	return &wit.TypeDef{
		Name: &name,
		Kind: &wit.Resource{},
	}
}

// TypeName returns the name of a type definition, or "" if it has none.
func TypeName(def *wit.TypeDef) string {
	if def == nil || def.Name == nil {
		return ""
	}
	return *def.Name
}

func checkResourceType(def *wit.TypeDef) error {
	if def == nil {
		return errors.InvalidInput(errors.PhaseTable, "nil resource type")
	}
	if _, ok := def.Kind.(*wit.Resource); !ok {
		return errors.New(errors.PhaseTable, errors.KindTypeMismatch).
			Detail("%q is not a resource type", TypeName(def)).
			Build()
	}
	return nil
}
