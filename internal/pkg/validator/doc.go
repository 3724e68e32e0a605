// Package validator validates request and domain structs.
//
// Business code depends on the Validator interface; V10Validator is backed by
// go-playground/validator v10 and reports failures as a snake_case field map.
package validator
