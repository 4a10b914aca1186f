// Package tree implements the JSON-like document tree that serialization
// reads and writes.
//
// A Node is one of eight kinds: null, bool, int64, uint64, float64, string,
// array, or object. Object members keep insertion order, so a document
// written field by field round-trips with a stable layout. The same tree
// shape travels through two encodings: textual JSON with a configurable
// indent, and MessagePack binary.
package tree
