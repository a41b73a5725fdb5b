// Package value defines Value, the closed set of types a configuration string
// can be cast into: none, bool, int, float, string, list and map.
package value
