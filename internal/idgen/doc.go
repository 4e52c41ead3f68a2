// Package idgen centralises unique id generation so that the rest of the
// code-base does not depend on a concrete uuid library directly.
package idgen
