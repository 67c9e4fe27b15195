// Package document decodes the XML bodies returned by an MTConnect Agent
// (MTConnectDevices, MTConnectStreams, MTConnectAssets, MTConnectError) into
// Go types, and resolves the document's schema version from its namespace.
//
// Decode never returns a nullable document for "didn't match" the way the
// reference client does; it returns a tagged Outcome so callers can switch
// on Kind instead of checking pointers for nil.
package document
