// Package beatbox records the results of function calls and plays them back.
//
// A Beatbox wraps ordinary Go functions. In Record mode a wrapped call runs
// and its result is stored under a fingerprint of the call; in Playback mode
// the stored result is returned and the function never runs; in Bypass mode
// the function runs and nothing is stored.
//
// Components:
//   - value: the self-describing model results and arguments are stored as.
//   - codec: Go values <-> value model, plus the byte codecs for files.
//   - fingerprint: callable identity + canonical arguments -> CallKey.
//   - storage: one isolated recording file per Beatbox.
//
// Keys:
//
//	<identity>:<canonical JSON of the arguments>
//
// Typical use:
//
//	bb, _ := beatbox.New(beatbox.Options{Path: "testdata/api.json", Mode: beatbox.Record})
//	defer bb.Close(ctx)
//	fetch := beatbox.Wrap(bb, client.Fetch) // same signature as client.Fetch
//	user, err := fetch(ctx, 42)
//
// Persistence is synchronous by default: a Record call returns after the
// file holds its result. With AsyncPersist the write happens in the
// background and Flush waits for it.
//
// The beatbox command in cmd/beatbox inspects and converts recording files.
package beatbox
