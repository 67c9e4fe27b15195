// Package drivers implements the MTConnect Request Drivers: Probe, Current,
// Asset, and Stream. Each one issues its HTTP request through a
// transport.Client, decodes the response with document.Decode, and
// classifies failure into the three domains the Session Loop and Error
// Router dispatch on: ConnectionFailure, ProtocolError, TransportError.
package drivers
