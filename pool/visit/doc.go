// Package visit implements the bidirectional binary visitor used to save and
// load pools, together with the framed stream format that wraps a visit pass
// (header, optional compression, checksum) and the payload codecs that plug
// concrete payload types into a pass.
//
// A Visitor is either writing or reading. The same visit function serves both
// directions: when writing it encodes the pointed-to value, when reading it
// overwrites it. Errors are sticky, so a visit function can issue a sequence
// of calls and check Err once at the end.
package visit
