// Package password hashes pay passwords with Argon2id and decrypts
// RSA-encrypted login password hashes loaded from storage.
//
// # Output format
//
// Pay-password hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goAuthz package.
//   - Log plaintext passwords or private key material.
package password
