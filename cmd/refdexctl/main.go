// Command refdexctl inspects reference catalogs and runs one-off searches.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	domtext "github.com/kailas-cloud/refdex/internal/domain/text"
	catalogrepo "github.com/kailas-cloud/refdex/internal/repository/catalog"
	openaiEmb "github.com/kailas-cloud/refdex/internal/transport/openai"
	"github.com/kailas-cloud/refdex/internal/version"
	refdex "github.com/kailas-cloud/refdex/pkg/sdk"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "refdexctl:", err)
		os.Exit(1)
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "catalog",
		Aliases:  []string{"c"},
		Usage:    "Path to the catalog JSON file (.gz allowed)",
		EnvVars:  []string{"CATALOG_PATH"},
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "refdexctl",
		Usage:   "Inspect reference catalogs and run one-off searches",
		Version: version.String(),
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "Catalog maintenance",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Print categories, item counts and embedding dimension",
						Flags:  []cli.Flag{catalogFlag()},
						Action: catalogStatsCommand,
					},
				},
			},
			{
				Name:      "clean",
				Usage:     "Print the normalized form of text, as used for matching",
				ArgsUsage: "TEXT...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "digits", Usage: "Keep digits"},
				},
				Action: cleanCommand,
			},
			{
				Name:   "search",
				Usage:  "Rank a catalog against an image and/or text and print the top results",
				Action: searchCommand,
				Flags: []cli.Flag{
					catalogFlag(),
					&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Query image file"},
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Query text"},
					&cli.BoolFlag{Name: "text-filter", Usage: "Keep only items containing every query word"},
					&cli.BoolFlag{Name: "digits", Usage: "Keep digits in the query text"},
					&cli.IntFlag{Name: "top", Aliases: []string{"n"}, Usage: "Number of categories to print", Value: 10},
					&cli.StringFlag{Name: "metric", Usage: "cosine or euclidean", Value: "cosine"},
					&cli.StringFlag{Name: "aggregator", Usage: "min, max, mean or median", Value: "min"},
					&cli.StringFlag{Name: "provider", Usage: "Embedding provider: hash or openai", Value: "hash"},
					&cli.StringFlag{Name: "model", Usage: "Embedding model (openai provider)", EnvVars: []string{"MODEL_NAME"}},
					&cli.StringFlag{Name: "api-key", Usage: "Embedding API key", EnvVars: []string{"MODEL_API_KEY"}},
					&cli.StringFlag{Name: "base-url", Usage: "Embedding API base URL", EnvVars: []string{"MODEL_BASE_URL"}},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log SDK operations to stderr"},
				},
			},
		},
	}
}

func catalogStatsCommand(c *cli.Context) error {
	cat, err := catalogrepo.NewFileSource(c.String("catalog")).Load(c.Context)
	if err != nil {
		return err
	}

	refs := 0
	for _, it := range cat.Items() {
		refs += len(it.Embeddings())
	}
	out := c.App.Writer
	fmt.Fprintf(out, "categories: %d\nitems: %d\nreferences: %d\ndimensions: %d\n\n",
		len(cat.Categories()), cat.Len(), refs, cat.Dimensions())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tITEMS")
	for _, name := range cat.Categories() {
		items, _ := cat.Category(name)
		fmt.Fprintf(tw, "%s\t%d\n", name, len(items))
	}
	return tw.Flush()
}

func cleanCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("clean: text argument required")
	}
	fmt.Fprintln(c.App.Writer, domtext.Clean(strings.Join(c.Args().Slice(), " "), c.Bool("digits")))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context
	top := max(c.Int("top"), 1)

	opts := []refdex.Option{
		refdex.WithCatalogFile(c.String("catalog")),
		refdex.WithScoring(c.String("metric"), c.String("aggregator")),
		refdex.WithPageSizes(top, top),
	}
	if c.Bool("verbose") {
		opts = append(opts, refdex.WithLogger(slog.New(slog.NewTextHandler(c.App.ErrWriter,
			&slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	switch c.String("provider") {
	case "hash":
	case "openai":
		if c.String("model") == "" {
			return errors.New("search: --model is required for provider openai")
		}
		opts = append(opts, refdex.WithEmbedder(&openaiAdapter{inner: openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:   c.String("api-key"),
			BaseURL:  c.String("base-url"),
			Model:    c.String("model"),
			Provider: "openai",
		})}))
	default:
		return fmt.Errorf("search: unknown provider %q", c.String("provider"))
	}

	q := refdex.Query{
		Text:          c.String("text"),
		TextFilter:    c.Bool("text-filter"),
		IncludeDigits: c.Bool("digits"),
	}
	if path := c.String("image"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		q.Image, q.Filename = data, path
	}

	client, err := refdex.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := client.Search(ctx, q)
	if err != nil {
		if reasons := refdex.Reasons(err); len(reasons) > 0 {
			return fmt.Errorf("search rejected: %s", strings.Join(reasons, ", "))
		}
		if errors.Is(err, refdex.ErrNoMatchFound) {
			fmt.Fprintln(c.App.Writer, "no match found")
			return nil
		}
		return err
	}
	page, err := client.ViewResults(ctx, id, 1)
	if err != nil {
		return err
	}
	return printPage(c, page)
}

func printPage(c *cli.Context, page refdex.Page) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCATEGORY\tLABEL\tSCORE\tIN CATEGORY")
	for i, r := range page.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%d\n", i+1, r.Category, r.Label, r.Score, r.Count)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if page.HasNext {
		fmt.Fprintf(c.App.Writer, "(%d more categories)\n", page.Total-len(page.Results))
	}
	return nil
}

// openaiAdapter exposes the OpenAI-compatible embedder through the SDK Embedder interface.
type openaiAdapter struct {
	inner *openaiEmb.Embedder
}

func (a *openaiAdapter) Embed(ctx context.Context, image []byte) ([]float32, error) {
	res, err := a.inner.Embed(ctx, image)
	if err != nil {
		return nil, err //nolint:wrapcheck // the SDK wraps provider errors
	}
	return res.Embedding, nil
}
