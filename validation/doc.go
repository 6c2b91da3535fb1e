// Package validation checks configuration structs against their
// `validate` struct tags using go-playground/validator and reports every
// failing field in a single *errors.AppError with code INVALID_CONFIG.
//
//	type Config struct {
//	    Workers int `mapstructure:"workers" validate:"min=1,max=4096"`
//	}
//	err := validation.Validate(cfg)
package validation
