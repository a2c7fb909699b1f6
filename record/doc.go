// Package record defines schema-described structured values and their
// canonical, sparse textual encoding.
//
// A Schema is a static descriptor table: an ordered list of named, typed
// fields with optional defaults and update policies. Records bound to a
// schema encode to compact one-line JSON objects that omit default-valued
// fields, and decode back losslessly. Equality is structural and matches
// the sparse encoding, so a freshly built record and one loaded from
// storage compare equal.
package record
