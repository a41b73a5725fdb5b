// Package normalize casts raw configuration strings into typed values.
//
// A string passes through ordered stages: quote stripping, variable
// interpolation, home directory expansion, none and boolean literals, JSON
// containers, lists, numbers, durations, byte sizes, percentages and
// lowercasing. The first stage that recognizes the text produces the result;
// anything left over stays a string. An optional enum check runs last.
//
// Durations are reported in float seconds and byte sizes in integer bytes.
// Which stages run is controlled by Options, usually built with NewOptions and
// the With* helpers.
package normalize
