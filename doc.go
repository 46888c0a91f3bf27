// Package arbor is an animated, collapsible mind-map tree for [Ebitengine].
//
// Arbor owns a rooted tree of labelled nodes, lays out the visible part of it
// as a left-to-right node-link diagram, and animates every structural change:
// expanding a node grows its children out of the node that was clicked,
// collapsing pulls them back in. Pan and zoom are independent of the tree, and
// the current diagram can be exported to a one-page PDF.
//
// # Quick start
//
//	data, err := arbor.ParseData(yamlBytes)
//	if err != nil { ... }
//	mm, err := arbor.New(data)
//	if err != nil { ... }
//	arbor.Run(mm, arbor.RunConfig{Title: "Mind Map"})
//
// For full control, implement [ebiten.Game] yourself and call
// [MindMap.Update] and [MindMap.Draw] directly.
//
// # Model
//
// [Build] turns a [Data] literal into a [Tree] of [TreeNode]s. Each node keeps
// one ordered child list and an expanded flag, so a child is either visible or
// hidden, never both. Identities are assigned once, in pre-order, when the
// tree is built; collapsing never destroys nodes.
//
// # Reconciliation
//
// Every structural change runs [Reconciler.Reconcile] anchored at the node
// that triggered it. The visible tree is laid out again, diffed against the
// elements currently on screen by node id, and each element is classified as
// entering, updating, or exiting. Entering elements start at the trigger's
// previous position; exiting elements shrink into the trigger's new position.
// Transitions use [gween] and a newer reconciliation retargets a running
// transition in place.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package arbor
