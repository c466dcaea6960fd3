// Package otp computes HOTP (RFC 4226) and TOTP (RFC 6238) codes from
// base32-encoded shared secrets.
//
// The engine is fixed to HMAC-SHA1. Callers pick the time step and the number
// of digits; the defaults (30 seconds, 6 digits) match what authenticator
// apps use. The optional algorithm/digits/period parameters carried by an
// otpauth URI are not consumed here.
//
// All functions are pure; the ones that read the wall clock have an ...At
// variant taking an explicit time so tests stay deterministic. Generator
// bundles a Clock with a step and a digit count for the display loop.
package otp
