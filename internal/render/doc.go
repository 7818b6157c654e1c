// Package render serializes exported queries.
//
// Every rendering starts from a querytree.CleanQuery, so ids never leak into
// output. Strings are NFC-normalized and HTML characters are written as-is.
// Object keys keep declaration order (logic, conditions, groups and field,
// operator, value) rather than being sorted; the exported form is meant to
// be read by people as well as compared byte for byte.
//
// Fingerprint hashes the compact form with a domain prefix, giving a stable
// identity for a query that survives copy and paste.
package render
