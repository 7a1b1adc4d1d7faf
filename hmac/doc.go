// Package hmac implements the wire protocol for HMAC-signed API requests: a client
// holding an API key and its shared secret uses hmac.Signer.Sign() to attach a
// timestamp, a protocol version and an HMAC signature to each request (with the API
// key itself carried in the 'apiKey' query parameter). When the request reaches a
// service, the service extracts those values into a Credentials record and hands it to
// an hmac.Authenticator, which looks up the secret for the API key and recomputes the
// signature, thereby proving that the caller holds the secret without the secret ever
// being sent over the wire.
package hmac
