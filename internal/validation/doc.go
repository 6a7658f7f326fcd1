// Package validation implements the field validators used by the wizards.
//
// Validators are pure functions of (field name, value, context). They never
// touch wizard state, so each rule can be exercised on its own:
//
//	res := validation.Validate("pageLoadTimeout", "0", nil, validation.PositiveInteger("Page load timeout"))
//	// res.Valid == false, res.Message == "Page load timeout must be a positive whole number"
//
// Free-text JSON fields are deliberately accepted as opaque strings while the
// user types (see SoftJSON). Malformed JSON is rejected later by the payload
// transformers, at submit time only.
package validation
