// Package wire defines the document schema used by remote document stores.
//
// Records never travel to a remote store as-is. Each record kind has a typed
// wire document whose required fields are plain values and whose optional
// fields are pointers tagged omitempty, so an absent field is left out of
// the document entirely instead of being written as null. Temporal fields
// use Timestamp, the store-native seconds/nanos pair.
//
// Adapters exchange the untyped Document form. Encode and Decode functions
// convert between records and Documents:
//
//	doc, err := wire.EncodeAdventure(a)
//	...
//	back, err := wire.DecodeAdventure(doc)
//
// Stored documents never contain null. The only place null appears is a
// partial update built by EncodeUpdate, where it marks a field to remove.
//
// Decoding tolerates missing optional fields and fills the same defaults a
// freshly created record would get.
package wire
