// Package assertion defines the assertion rule model attached to API test
// definitions.
//
// An assertion pairs a response source (status code, header, JSON path, body
// text, response time) with a comparison and an optional property and target
// value. Which comparisons are legal depends on the source; whether a
// property is needed depends on the source; whether a target value is needed
// depends on the comparison.
//
// The model never rejects an illegal combination. Repair corrects it: a
// comparison that is no longer legal for a new source is replaced by the
// first legal one, and a property the new source does not use is cleared.
package assertion
