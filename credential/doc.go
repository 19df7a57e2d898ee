// Package credential encodes the client-held bearer and refresh payloads.
//
// Both payloads are standard base64 of a JSON object. The field names are
// part of the wire contract with existing clients and must not change.
//
// [Hash] is the lowercase hex SHA-256 used for login signatures; clients
// compute the same value to prove knowledge of the binding key.
package credential
