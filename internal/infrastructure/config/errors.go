package config

import "errors"

// Configuration errors. All of them are fatal at startup.
var (
	// ErrTemplateMissing is returned when the bundled template is absent.
	// This is a packaging error, not an operator mistake.
	ErrTemplateMissing = errors.New("config: template missing")

	// ErrTemplateInvalid is returned when the bundled template cannot be parsed.
	ErrTemplateInvalid = errors.New("config: template invalid")

	// ErrOverrideInvalid is returned when the override file is not valid YAML.
	ErrOverrideInvalid = errors.New("config: override file invalid")

	// ErrInvalid is returned when the resolved settings fail validation.
	ErrInvalid = errors.New("config: invalid settings")
)
