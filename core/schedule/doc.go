// Package schedule decides whether a dispatch is due to fire at a given
// instant. Evaluation is pure and fail-closed: a malformed or partially
// configured dispatch is never eligible and never causes an error.
package schedule
