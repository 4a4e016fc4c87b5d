package config

import "context"

// Loader translates one or more plan files in some concrete syntax into the
// format-agnostic Plan model. The HCL loader is the only implementation
// today; keeping the interface here keeps the syntax out of every consumer.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Plan, error)
}
