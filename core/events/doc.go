// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - gesture.*
//   - transcript.*
//   - status.*
//
// Semantics used across the package:
//
//   - Accepted: a classification that passed confidence filtering and
//     duplicate debouncing.
//   - Unclear: a classification below the confidence threshold; carries no
//     label because none was trusted.
//   - Flushed: state handed downstream after a silence window elapsed.
//
// session events
//
//   - SessionStateChanged (session.state_changed): the session lifecycle
//     state moved to a new value.
//   - SessionError (session.error): a user-visible session failure; retained
//     by the session until dismissed or a new start clears it.
//
// gesture events
//
//   - GestureAccepted (gesture.accepted): a gesture entered history and the
//     active sentence.
//   - GestureUnclear (gesture.unclear): a below-threshold classification;
//     drives "uncertain" feedback only.
//   - SentenceFlushed (gesture.sentence_flushed): the active sentence label
//     run was closed by silence and handed downstream.
//
// transcript events
//
//   - TranscriptEntryAdded (transcript.entry_added): an interpreted sentence
//     or caption was appended to the transcript log.
//
// status events
//
//   - StatusUpdated (status.updated): the pipeline stage indicators changed;
//     carries a full snapshot of all stages.
package events
