// Package frontend owns the permanent graph and drives one batch at a
// time through variant generation, parallel candidate building and
// evaluation, selection and commit.
//
// Key types: Frontend, Options, Result.
//
// Dependency rule: frontend is the only package that mutates the
// permanent graph. It may depend on every engine package plus config,
// monitoring and timeutil; nothing in internal/ depends on frontend.
package frontend
