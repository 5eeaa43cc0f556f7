// Package validate runs document checks after edits settle.
//
// A Debouncer delays work until no new work has been scheduled for a
// quiet period. Every Schedule bumps a generation counter; a timer that
// fires for an older generation does nothing. A Validator combines a
// Debouncer with Check, which reports schema violations and table
// layout problems of a document.
package validate
