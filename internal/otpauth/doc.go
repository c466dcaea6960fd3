// Package otpauth converts between otpauth:// key URIs and Accounts.
//
// The URI shape is the one authenticator apps exchange through QR codes:
//
//	otpauth://{totp|hotp}/{label}?secret=BASE32&issuer=STR[&algorithm=STR][&digits=INT][&period=INT][&counter=INT]
//
// The label is "issuer:account" or just "account". A query issuer wins over
// the label prefix; with neither, the issuer is DefaultIssuer.
//
// Serialize is intentionally lossy: it always writes a totp URI and never
// writes algorithm, digits or period, because an Account does not carry them.
package otpauth
