// folio indexes a directory of Markdown blog posts: it validates their front
// matter, orders them by publish date and builds a tag index.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Hermanowicz/hermanowicz.co/internal/builder"
	"github.com/Hermanowicz/hermanowicz.co/internal/config"
	"github.com/Hermanowicz/hermanowicz.co/internal/index"
	"github.com/Hermanowicz/hermanowicz.co/internal/logging"
	"github.com/Hermanowicz/hermanowicz.co/internal/scaffold"
	"github.com/Hermanowicz/hermanowicz.co/internal/server"
)

var (
	// Global flags
	configFile string
	contentDir string
	logLevel   string
	logFormat  string

	// build flags
	outPath      string
	outputFormat string
	strict       bool

	// serve flags
	port int
)

var errSkipped = errors.New("some content files were skipped")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Index a directory of Markdown blog posts",
		Long: `folio reads Markdown posts with YAML (---) or TOML (+++) front matter,
validates title, description and pubDate, orders posts newest first and
builds a tag index. Files that fail validation are skipped and reported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: folio.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contentDir, "dir", "d", "", "Content directory (overrides content_dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json, pretty)")

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(newCmd())
	return rootCmd
}

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the post index and write it as JSON or YAML",
		Long: `Build runs one load pass and writes the index document: the ordered posts,
the tag index and the report of skipped files.

Examples:
  folio build
  folio build --out - --format yaml
  folio build --strict`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file, or - for stdout (default: output from config)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, yaml)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any file was skipped")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate all posts and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, provider, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			snap, err := builder.New(site, logging.ModuleLogger(provider, "builder")).Build(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d published, %d skipped\n", snap.Report.Published, len(snap.Report.Skipped))
			if snap.Report.Clean() {
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tCODE\tFIELDS\tMESSAGE")
			for _, issue := range snap.Report.Skipped {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Path, issue.Code, strings.Join(issue.Fields, ","), issue.Message)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return errSkipped
		},
	}
}

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags [tag]",
		Short: "List tags with post counts, or the posts of one tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, provider, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			snap, err := builder.New(site, logging.ModuleLogger(provider, "builder")).Build(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if len(args) == 1 {
				posts := snap.Index.TagPosts(args[0])
				if len(posts) == 0 {
					return fmt.Errorf("no posts tagged %q", args[0])
				}
				fmt.Fprintln(tw, "DATE\tSLUG\tTITLE")
				for _, p := range posts {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.PubDate.Format(time.DateOnly), p.Slug, p.Title)
				}
				return tw.Flush()
			}

			fmt.Fprintln(tw, "TAG\tLABEL\tPOSTS")
			for _, tc := range snap.Index.TagCounts() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", tc.Tag, tc.Label, tc.Count)
			}
			return tw.Flush()
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index as JSON and rebuild on content changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, provider, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				site.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(
				builder.New(site, logging.ModuleLogger(provider, "builder")),
				server.Options{
					Port:     site.Server.Port,
					Debounce: time.Duration(site.Server.Debounce) * time.Millisecond,
					Logger:   logging.ModuleLogger(provider, "server"),
				},
			)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 1313, "Port for the local server")
	return cmd
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Scaffold a site or a post",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "site <dir>",
		Short: "Create a new site in dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := scaffold.CreateNewSite(args[0], time.Now())
			for _, path := range created {
				fmt.Fprintln(cmd.OutOrStdout(), "Created:", path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site scaffolded. You can now:\n  cd %s\n  folio serve\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "post <title>",
		Short: "Create a new post in the content directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			path, err := scaffold.CreateNewPost(site.ContentDir, strings.Join(args, " "), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created:", path)
			return nil
		},
	})
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	site, provider, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := logging.ModuleLogger(provider, "folio")

	snap, err := builder.New(site, logging.ModuleLogger(provider, "builder")).Build(cmd.Context())
	if err != nil {
		return err
	}

	target := outPath
	if target == "" {
		target = site.Output
	}
	if err := writeOutput(cmd.OutOrStdout(), target, outputFormat, newDocument(site, snap)); err != nil {
		return err
	}
	if target != "-" {
		logger.Info("index written", "path", target, "posts", snap.Report.Published)
	}

	if strict && !snap.Report.Clean() {
		return fmt.Errorf("%w: %d file(s)", errSkipped, len(snap.Report.Skipped))
	}
	return nil
}

// writeOutput writes doc to target, or to stdout when target is "-".
func writeOutput(stdout io.Writer, target, format string, doc document) (err error) {
	if target == "-" {
		return writeDocument(stdout, format, doc)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close output file: %w", cerr)
		}
	}()
	return writeDocument(f, format, doc)
}

// document is the file written by `folio build`.
type document struct {
	Title     string            `json:"title" yaml:"title"`
	BuildID   string            `json:"buildId" yaml:"buildId"`
	BuiltAt   time.Time         `json:"builtAt" yaml:"builtAt"`
	Posts     []index.Summary   `json:"posts" yaml:"posts"`
	Tags      index.TagIndex    `json:"tags" yaml:"tags"`
	TagLabels map[string]string `json:"tagLabels" yaml:"tagLabels"`
	Report    builder.Report    `json:"report" yaml:"report"`
}

func newDocument(site config.SiteConfig, snap *builder.Snapshot) document {
	return document{
		Title:     site.Title,
		BuildID:   snap.BuildID,
		BuiltAt:   snap.BuiltAt,
		Posts:     snap.Index.Posts,
		Tags:      snap.Index.Tags,
		TagLabels: snap.Index.Labels,
		Report:    snap.Report,
	}
}

func writeDocument(w io.Writer, format string, doc document) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

// relativeTo resolves a relative path against the directory of configPath.
func relativeTo(configPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}

// loadSettings resolves the config file, applies flag overrides and builds
// the logger provider. Logs go to stderr so stdout stays usable for output.
func loadSettings(cmd *cobra.Command) (config.SiteConfig, logging.Provider, error) {
	path, optional := configFile, false
	if path == "" {
		path, optional = config.DefaultFile, true
	}

	site, err := config.LoadSiteConfig(path, optional)
	if err != nil {
		return config.SiteConfig{}, nil, err
	}

	if contentDir != "" {
		site.ContentDir = contentDir
	} else if configFile != "" {
		// content_dir is relative to the config file that names it.
		site.ContentDir = relativeTo(configFile, site.ContentDir)
	}
	if configFile != "" && site.Output != "-" {
		site.Output = relativeTo(configFile, site.Output)
	}
	if logLevel != "" {
		site.Log.Level = logLevel
	}
	if logFormat != "" {
		site.Log.Format = logFormat
	}
	if err := site.Validate(); err != nil {
		return config.SiteConfig{}, nil, fmt.Errorf("invalid settings: %w", err)
	}

	provider, err := logging.New(logging.Options{
		Level:  site.Log.Level,
		Format: site.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return config.SiteConfig{}, nil, err
	}
	return site, provider, nil
}
