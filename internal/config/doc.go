// Package config loads the comboer's JSON tuning file.
//
// The canonical defaults live in config/comboer.defaults.json. Every field is
// a pointer so that partial files are valid: fields left out fall back to the
// defaults returned by the Get* methods.
package config
