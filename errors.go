// Classification: sentinel error set for the ambre package.
//
// Error policy (grounded on builder/errors.go and matrix/errors.go):
//   - Only sentinel variables are exposed at package level.
//   - Callers branch on semantics with errors.Is(err, ErrX), never by
//     matching an error's message.
//   - Sentinels are never wrapped with formatted strings at definition
//     site; call sites attach context via fmt.Errorf("%w: %v", ...).
package ambre

import "errors"

// ErrInvalidItem indicates a raw item failed normalization: it was empty,
// or it contained the reserved column/value separator.
// Usage: if errors.Is(err, ErrInvalidItem) { /* reject the transaction */ }.
var ErrInvalidItem = errors.New("ambre: invalid item")

// ErrMaxLenExceeded indicates a transaction's antecedent count exceeded the
// configured max_len while strict mode was requested.
// Usage: if errors.Is(err, ErrMaxLenExceeded) { /* truncate or split input */ }.
var ErrMaxLenExceeded = errors.New("ambre: transaction length exceeds the configured maximum")

// ErrUnknownAntecedent indicates a Predict query item was never observed,
// and skipUnknown was not requested.
// Usage: if errors.Is(err, ErrUnknownAntecedent) { /* retry with skipUnknown */ }.
var ErrUnknownAntecedent = errors.New("ambre: antecedent item was never observed")

// ErrIncompatibleMerge indicates two databases cannot be merged because
// their configuration or declared consequent sets differ.
// Usage: if errors.Is(err, ErrIncompatibleMerge) { /* align configuration first */ }.
var ErrIncompatibleMerge = errors.New("ambre: databases are incompatible for merge")

// ErrSchemaMismatch indicates a Load blob's magic or schema version didn't
// match what this version of the package writes.
// Usage: if errors.Is(err, ErrSchemaMismatch) { /* re-export with this version */ }.
var ErrSchemaMismatch = errors.New("ambre: schema mismatch")

// ErrConfigError indicates an Option, or the consequents passed to New,
// failed validation: a non-positive threshold, an empty or duplicate
// consequent, or a contradictory combination of settings.
// Usage: if errors.Is(err, ErrConfigError) { /* fix configuration */ }.
var ErrConfigError = errors.New("ambre: invalid configuration")

// ErrCancelled indicates a context passed to DeriveFrequentItemsets or
// DeriveRules was cancelled before the operation completed. The database is
// left unchanged. Predict takes no context and never returns it.
// Usage: if errors.Is(err, ErrCancelled) { /* retry or give up */ }.
var ErrCancelled = errors.New("ambre: operation cancelled")
