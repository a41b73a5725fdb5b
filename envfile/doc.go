// Package envfile discovers dotenv files across a directory hierarchy and
// merges their contents by precedence.
package envfile
