// Package errors provides standardized error handling for the MTConnect
// client.
//
// # Overview
//
// Two layers of classification are used:
//
//   - The three MTConnect-specific failure domains named by spec §4.B/§4.C:
//     ConnectionFailure, ProtocolError, and TransportError. These are what the
//     Request Drivers return and what the Error Router dispatches on.
//   - The general three-class system (Transient/Invalid/Fatal) used for
//     everything else in the ambient stack: config loading, TLS setup, and
//     bridge startup.
//
// # Usage
//
//	result, err := driver.Execute(ctx)
//	if err != nil {
//	    var cf *errors.ConnectionFailure
//	    if errors.As(err, &cf) {
//	        // back off and retry from last safe state
//	    }
//	}
//
//	if err := cfg.Validate(); err != nil {
//	    return errors.WrapInvalid(err, "config", "Validate", "field check")
//	}
package errors
