package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/render"
	pkgconfig "github.com/starford/folio/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.Root().String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadWithDefaults(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.Root().String("library"); root != "" {
		cfg.Library.Root = root
	}
	return cfg, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

// withLibrary opens the library for a one-shot command.
func withLibrary(ctx context.Context, cmd *cli.Command, fn func(*internal.Library) error) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	lib, err := internal.Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer lib.Close()
	return fn(lib)
}

func tree(ctx context.Context, cmd *cli.Command) error {
	return withLibrary(ctx, cmd, func(lib *internal.Library) error {
		out, err := render.Tree(ctx, lib.Service, lib.Store.Root(), cmd.Args().First())
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	})
}

func importFile(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("import: source file is required")
	}
	return withLibrary(ctx, cmd, func(lib *internal.Library) error {
		for _, src := range cmd.Args().Slice() {
			res, err := lib.Service.Import(ctx, cmd.String("dir"), src)
			if err != nil {
				return err
			}
			kind := "file"
			if res.Document {
				kind = res.Type.String()
			}
			fmt.Printf("%s -> %s (%s)\n", src, res.Path, kind)
		}
		return nil
	})
}

func show(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("show: exactly one document path is required")
	}
	return withLibrary(ctx, cmd, func(lib *internal.Library) error {
		doc, err := lib.Service.OpenDocument(ctx, cmd.Args().First())
		if err != nil {
			return err
		}
		out, err := render.Document(doc, cmd.String("style"), int(cmd.Int("width")))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	})
}

func main() {
	cmd := &cli.Command{
		Name:    "folio",
		Usage:   "Document library manager with typed documents, import and full-text search",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Library root (overrides library.root)",
				Sources: cli.EnvVars("FOLIO_LIBRARY_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and library watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:      "tree",
				Usage:     "Print the library tree",
				ArgsUsage: "[dir]",
				Action:    tree,
			},
			{
				Name:      "import",
				Usage:     "Copy files into the library without overwriting",
				ArgsUsage: "<file>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Target directory inside the library"},
				},
				Action: importFile,
			},
			{
				Name:      "show",
				Usage:     "Print a document, rendering Markdown",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "style", Usage: "glamour style (dark, light, notty); empty detects the terminal"},
					&cli.IntFlag{Name: "width", Value: 100, Usage: "Word wrap width"},
				},
				Action: show,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
