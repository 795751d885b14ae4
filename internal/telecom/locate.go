// Package telecom locates call records inside a `dumpsys telecom` report.
//
// Two conventions coexist in that report: indented sections, which are read
// through dumpsys.Parse, and flat log lines carrying inline fields, which are
// read with plain substring scans. Every lookup here resolves a missing
// anchor to an empty result instead of an error.
package telecom

import (
	"github.com/theirongolddev/telwatch/internal/dumpsys"
)

// allCallsPath leads from the report root to the list of tracked calls.
var allCallsPath = []string{"CallsManager", "mCallAudioManager", "All calls"}

// CurrentCallID returns the first call listed under
// CallsManager > mCallAudioManager > All calls.
func CurrentCallID(root dumpsys.Node) (string, bool) {
	v, ok := root.Lookup(allCallsPath...)
	if !ok {
		return "", false
	}

	var items []dumpsys.Value
	switch v.Kind() {
	case dumpsys.KindNode:
		node, _ := v.AsNode()
		items = node[dumpsys.ItemsKey].Items()
	case dumpsys.KindBool, dumpsys.KindNumber, dumpsys.KindString:
		// "All calls: TC@1" written on one line
		items = v.Items()
	default:
		return "", false
	}

	if len(items) == 0 {
		return "", false
	}
	id := items[0].Text()
	return id, id != ""
}

// ExtractAnalytics returns the analytics block recorded for callID, or an
// empty node when the block is missing or its braces never balance.
func ExtractAnalytics(dump, callID string) dumpsys.Node {
	key := "Call " + callID
	token := key + ":"

	span, ok := dumpsys.ExtractBlock(dump, token)
	if !ok {
		return dumpsys.Node{}
	}

	tree := dumpsys.Parse(dumpsys.Reindent(token, span))
	v, ok := tree.Get(key)
	if !ok {
		return dumpsys.Node{}
	}
	node, ok := v.AsNode()
	if !ok {
		return dumpsys.Node{}
	}
	return node
}

// Direction reads the direction field of an analytics block
// ("INCOMING", "OUTGOING", or empty).
func Direction(analytics dumpsys.Node) string {
	v, ok := analytics.Get("direction")
	if !ok || !v.IsPrimitive() {
		return ""
	}
	return v.Text()
}
