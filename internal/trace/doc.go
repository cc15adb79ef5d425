/*
Package trace aggregates per-hop durations into a single header-carried summary.

# Overview

Every service in a synchronous call chain measures its own hop and appends it
to a JSON summary that travels back to the caller in one response header. No
tracing backend is involved: the header value is the whole trace.

# Components

  - Codec: deterministic JSON encode/decode of a Summary
  - Merger: inserts the current hop, finalizes the outer fields, truncates
  - Compensator: estimates the cost of the merge itself from the previous call
  - Clock: time source, replaceable in tests

# Usage

	merger := trace.NewMerger(trace.Settings{
		Variant:          trace.VariantTrace,
		LockOnTruncation: true,
	})

	begin := time.Now()
	// ... call downstream services ...
	value, err := merger.MergeHop(url, begin, inbound, outbound, 16*1024, 200)

# Header Format

	{"begin":"2025-08-28T20:21:15.000000000Z","duration":"PT10S",
	 "end":"2025-08-28T20:21:25.000000000Z","trace":[...],"url":"https://svc/outer"}

Keys are always emitted in lexicographic order and absent fields are omitted,
so equal summaries always encode to identical text.
*/
package trace
