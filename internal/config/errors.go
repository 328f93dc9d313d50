package config

import "errors"

// ErrUnknownConfigField classifies strict YAML parse failures caused by
// unknown keys, mirroring the teacher's config/errors.go sentinel idiom;
// callers use errors.Is(err, ErrUnknownConfigField) instead of matching on
// the yaml decoder's error string.
var ErrUnknownConfigField = errors.New("unknown config field")
