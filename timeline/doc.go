// Package timeline implements the interval algebra over one call's
// utterances: validation and flagging of raw records, the boundary-event
// sweep that yields span, speech, overlap, silence and apportioned
// per-speaker time, and the turn, interruption and gap derivations built
// on start-ordered utterances.
//
// Every function is a pure transform over a single call. Nothing here
// logs, blocks or keeps state between calls, so calls may be processed
// concurrently without coordination.
package timeline
