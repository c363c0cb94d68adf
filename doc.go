// Package nostress resolves the content library of the NostressAI site:
// articles, resources (tips and studies) and courses, stored as flat files
// with a YAML header or as rows in a relational database.
//
// # Quick Start
//
// Open a content directory, create a resolver, and ask for documents:
//
//	st, err := nostress.NewFileStore("content")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	r, err := nostress.NewResolver(st)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	list, err := r.ListDocuments(ctx, nostress.KindArticle)
//	post, err := r.ResolveDocument(ctx, nostress.KindArticle, "focus-basics")
//
// # Resolution Pipeline
//
// List views only need front matter:
//
//  1. Front matter (file header or database columns) normalised to Meta
//  2. Unpublished documents dropped, pillars resolved against the catalogue
//  3. Plain-text excerpt derived, results sorted newest first
//
// Detail views run the full pipeline:
//
//  1. Front matter, as above; unpublished documents are ErrNotFound
//  2. Excerpt and heading outline, derived concurrently with steps 3 and 4
//  3. Fenced code replaced by pre-rendered light and dark markup (chroma)
//  4. Body compiled to HTML (Goldmark, GFM tables, footnotes); malformed
//     raw HTML fails with a *CompileError
//
// # Configuration
//
// Use functional options to customize the resolver:
//
//	r, err := nostress.NewResolver(st,
//	    nostress.WithListExcerptLength(160),
//	    nostress.WithThemes("github", "monokai"),
//	    nostress.WithLogger(logger),
//	    nostress.WithListCache(),
//	)
//
// # Errors
//
// Use errors.Is with ErrNotFound, ErrStoreUnavailable and ErrInvalidKind,
// and errors.As with *CompileError to read the failing line and column.
package nostress
