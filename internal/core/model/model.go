// Package model defines the request types the HTTP layer hands to the codec
// service.
package model

import "fmt"

// DecodeRequest asks for the scene a document would produce.
type DecodeRequest struct {
	Body      []byte
	KeepHoles bool
}

// CacheTag distinguishes decode results of the same body under different
// options.
func (q DecodeRequest) CacheTag() string {
	return fmt.Sprintf("holes=%t", q.KeepHoles)
}

// NormalizeRequest runs a document through decode, import, assemble and
// encode. Session, when set, carries origin, CRS and transform across calls.
type NormalizeRequest struct {
	Body      []byte
	Dedupe    bool
	Precision int
	KeepHoles bool
	Session   string
}
