package main

import (
	"context"
	"fmt"
	"os"

	"lector/internal/app"
	"lector/internal/config"
	"lector/internal/lector"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Search", "ReadChapter").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// origin reads the --offline flag into an Origin.
func origin(cmd *cobra.Command) lector.Origin {
	offline, _ := cmd.Flags().GetBool("offline")
	if offline {
		return lector.OriginOffline
	}
	return lector.OriginOnline
}

var rootCmd = &cobra.Command{
	Use:   "lector",
	Short: "Manga catalog reader with offline archiving",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("API:       %s\n", cfg.API.BaseURL)
		fmt.Printf("Store:     %s (%s)\n", cfg.Store.Type, cfg.Store.DataDir)
		return nil
	},
}

// catalog commands

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog by title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Search")
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit == 0 {
			limit = a.ListLimit()
		}

		works, err := a.Search(context.Background(), args[0], limit)
		if err != nil {
			return fmt.Errorf("searching catalog: %w", err)
		}

		for _, w := range works {
			fmt.Printf("%s  %s\n", w.ID, w.Title)
		}
		return nil
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List the most-followed works",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Popular")
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit == 0 {
			limit = a.ListLimit()
		}

		works, err := a.Popular(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("listing popular works: %w", err)
		}

		for _, w := range works {
			fmt.Printf("%s  %s\n", w.ID, w.Title)
		}
		return nil
	},
}

var chaptersCmd = &cobra.Command{
	Use:   "chapters <work-id>",
	Short: "List a work's chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Chapters")
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit == 0 {
			limit = a.ListLimit()
		}

		chapters, err := a.Chapters(context.Background(), args[0], origin(cmd), limit)
		if err != nil {
			return fmt.Errorf("listing chapters: %w", err)
		}

		if len(chapters) == 0 {
			fmt.Println("No chapters found.")
			return nil
		}
		for _, ch := range chapters {
			title := ch.Title
			if title == "" {
				title = "Chapter " + ch.Label
			}
			fmt.Printf("%s  [%s]  %s\n", ch.ID, ch.Label, title)
		}
		return nil
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages <chapter-id>",
	Short: "List a chapter's page URLs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Pages")
		if err != nil {
			return err
		}
		defer a.Close()

		pages, err := a.Pages(context.Background(), args[0], origin(cmd))
		if err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}

		if len(pages) == 0 {
			fmt.Println("No pages found.")
			return nil
		}
		for i, u := range pages {
			fmt.Printf("%3d  %s\n", i+1, u)
		}
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <work-id> <chapter-id>",
	Short: "View a chapter online and archive it for offline reading",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ReadChapter")
		if err != nil {
			return err
		}
		defer a.Close()

		progress := func(done, total int) {
			fmt.Printf("\rArchiving pages: %d of %d", done, total)
			if done == total {
				fmt.Println()
			}
		}

		pages, notice, err := a.ReadChapter(context.Background(), args[0], args[1], progress)
		if err != nil {
			return err
		}

		for i, u := range pages {
			fmt.Printf("%3d  %s\n", i+1, u)
		}

		n := <-notice
		switch {
		case n.Err != nil:
			fmt.Printf("Archiving failed: %v\n", n.Err)
		case n.Result.Outcome == lector.OutcomeSkipped:
			fmt.Println("Chapter already archived.")
		default:
			fmt.Printf("Archived %d pages. %d chapters of this work are now offline.\n",
				n.Result.PagesArchived, n.Result.ChapterCount)
		}
		return nil
	},
}

// library commands

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List archived works",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Library")
		if err != nil {
			return err
		}
		defer a.Close()

		works, info, err := a.Library()
		if err != nil {
			return fmt.Errorf("listing library: %w", err)
		}

		if len(works) == 0 {
			fmt.Println("Library is empty.")
			return nil
		}
		for _, w := range works {
			line := fmt.Sprintf("%s  %s", w.ID, w.Title)
			if si := info[w.ID]; si != nil {
				line += fmt.Sprintf("  (at ch. %s, %s)", si.LastChapter, si.Status)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <work-id>",
	Short: "Remove a work and its archived chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Remove")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s from library.\n", args[0])
		return nil
	},
}

var markCmd = &cobra.Command{
	Use:   "mark <work-id> <status>",
	Short: "Set a work's reading state (reading, completed or paused)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Mark")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Mark(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Marked %s as %s.\n", args[0], args[1])
		return nil
	},
}

var coverCmd = &cobra.Command{
	Use:   "cover <work-id>",
	Short: "Write a work's stored cover image to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ExportCover")
		if err != nil {
			return err
		}
		defer a.Close()

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[0] + ".jpg"
		}
		if err := a.ExportCover(args[0], out); err != nil {
			return err
		}
		fmt.Printf("Wrote cover to %s\n", out)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <chapter-id>",
	Short: "Write an archived chapter's pages to a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ExportChapter")
		if err != nil {
			return err
		}
		defer a.Close()

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = args[0]
		}
		n, err := a.ExportChapter(args[0], dir)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d pages to %s\n", n, dir)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Stats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Reading:   %d\n", stats.Reading)
		fmt.Printf("Completed: %d\n", stats.Completed)
		fmt.Printf("Paused:    %d\n", stats.Paused)
		if v, ok := a.SchemaVersion(); ok {
			fmt.Printf("Archive schema: v%d\n", v)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	searchCmd.Flags().Int("limit", 0, "maximum results")
	popularCmd.Flags().Int("limit", 0, "maximum results")
	chaptersCmd.Flags().Int("limit", 0, "maximum results")
	chaptersCmd.Flags().Bool("offline", false, "read from the local archive")
	pagesCmd.Flags().Bool("offline", false, "read from the local archive")
	coverCmd.Flags().String("out", "", "output file (default <work-id>.jpg)")
	exportCmd.Flags().String("dir", "", "output directory (default <chapter-id>)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(coverCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
}
