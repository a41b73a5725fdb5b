// Package source resolves raw configuration values across layers.
//
// A Chain consults an optional Provider first, then the process environment
// and the merged env files in the order chosen by Config.PreferOSOverDotenv.
// Config also carries the env file discovery settings.
package source
