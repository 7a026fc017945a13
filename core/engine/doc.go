// Package engine drives recurring QC test dispatches. A periodic scanner
// evaluates every active dispatch against the schedule package and, for each
// eligible one, fans the dispatch out into one pending task per personnel and
// form pair, persists the batch, advances the execution counter for interval
// schedules and emits best-effort notifications.
package engine
