// Package pipeline implements the per-document content stages.
//
// A document body flows through these stages:
//   - Line-ending normalisation
//   - Excerpt derivation (plain-text summary, length-bounded)
//   - Heading extraction (level 2 and 3 outline with deep-link anchors)
//   - Code-block highlighting (dual light/dark themes, failures pass through)
//   - Body compilation via Goldmark (GFM, raw HTML checked for well-formedness)
//   - Optional asset URL rewriting on the compiled HTML
//
// Excerpt and heading extraction only read the body, so they may run
// concurrently with highlighting and compilation. Highlighting must finish
// before compilation starts. Loading documents and resolving metadata is
// handled by the store and frontmatter packages.
package pipeline
