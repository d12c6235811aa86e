// Package refdex embeds the refdex ranking engine in a Go program.
//
// A Client loads a reference catalog, ranks it against an image or a text
// query and keeps the ranking behind an opaque handle that later calls page
// through:
//
//	client, _ := refdex.New(ctx, refdex.WithCatalogFile("meta.json.gz"))
//	defer client.Close()
//
//	id, _ := client.Search(ctx, refdex.Query{Image: png, Text: "robin"})
//	page, _ := client.ViewResults(ctx, id, 1)
//	for _, r := range page.Results {
//	    fmt.Println(r.Category, r.Label, r.Score, r.Count)
//	}
//
// Without WithEmbedder the client uses a deterministic hash embedder, which is
// only useful for demos and tests.
package refdex
