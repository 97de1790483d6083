// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the anytomd CLI: convert documents of
// any supported format to Markdown.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/developer0hye/anytomd"
	"github.com/developer0hye/anytomd/gemini"
	"github.com/developer0hye/anytomd/internal/cache"
	"github.com/developer0hye/anytomd/internal/secrets"
	"github.com/developer0hye/anytomd/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// usageError marks argument problems that should exit with status 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

var rootCmd = &cobra.Command{
	Use:   "anytomd [files...]",
	Short: "Convert documents to Markdown",
	Long: `anytomd converts heterogeneous documents into normalized Markdown: OOXML
word, presentation, and spreadsheet packages, PDF, CSV, JSON, XML, HTML,
Jupyter notebooks, source code, plain text, and standalone images.

With no file arguments the input is read from standard input, in which case
--format is required. Multiple inputs are concatenated with a source marker
before each. Recoverable anomalies are reported as warnings on standard
error; --strict turns any warning into a failure.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
	RunE: run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./anytomd.yaml or ~/.config/anytomd/config.yaml)")

	rootCmd.Flags().StringP("output", "o", "", "write Markdown to this file instead of stdout")
	rootCmd.Flags().StringP("format", "f", "", "force the input format tag (required when reading stdin)")
	rootCmd.Flags().Bool("strict", false, "treat warnings as failures")
	rootCmd.Flags().Bool("describe", false, "describe images through the Gemini API")
	rootCmd.Flags().String("model", "", "Gemini model for image description")
	rootCmd.Flags().Bool("extract-images", false, "write embedded images next to the output")
	rootCmd.Flags().String("media-dir", "", "directory for extracted images (default: alongside the output)")
	rootCmd.Flags().String("meta", "", "write a YAML sidecar with title and warnings to this path")
	rootCmd.Flags().String("cache", "", "SQLite conversion cache path")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("anytomd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "anytomd"))
		}
	}

	viper.SetEnvPrefix("ANYTOMD")
	viper.AutomaticEnv()
	viper.SetDefault("max-input-bytes", types.DefaultMaxInputBytes)
	viper.SetDefault("max-image-bytes", types.DefaultMaxTotalImageBytes)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts := &types.Options{
		MaxInputBytes:      viper.GetInt("max-input-bytes"),
		MaxTotalImageBytes: viper.GetInt("max-image-bytes"),
	}
	opts.Strict, _ = cmd.Flags().GetBool("strict")
	opts.ExtractImages, _ = cmd.Flags().GetBool("extract-images")

	if describe, _ := cmd.Flags().GetBool("describe"); describe {
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			key = loadedSecrets["gemini-api-key"]
		}
		if key == "" {
			return &usageError{msg: "--describe requires GEMINI_API_KEY or .secrets/gemini-api-key"}
		}
		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			model = viper.GetString("model")
		}
		d := gemini.New(key, model)
		opts.Describer = d
		opts.ContextDescriber = d
	}

	var store *cache.Store
	if cachePath, _ := cmd.Flags().GetString("cache"); cachePath != "" {
		var err error
		if store, err = cache.Open(cachePath); err != nil {
			return err
		}
		defer store.Close()
	}

	format, _ := cmd.Flags().GetString("format")
	if len(args) == 0 && format == "" {
		return &usageError{msg: "--format is required when reading from standard input"}
	}

	var out strings.Builder
	failed := false
	withMarkers := len(args) > 1
	var lastResult *types.Result

	convertOne := func(name string, data []byte, ext string) {
		res, err := convertInput(cmd, data, ext, opts, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", name, err)
			failed = true
			return
		}
		printWarnings(res.Warnings)
		if opts.Strict && len(res.Warnings) > 0 {
			fmt.Fprintf(os.Stderr, "error: %s: %d warning(s) in strict mode\n", name, len(res.Warnings))
			failed = true
			return
		}
		if withMarkers {
			fmt.Fprintf(&out, "<!-- source: %s -->\n\n", name)
		}
		out.WriteString(res.Markdown)
		lastResult = res
	}

	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		convertOne("<stdin>", data, format)
	} else {
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
				failed = true
				continue
			}
			ext := format
			if ext == "" {
				ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			}
			convertOne(path, data, ext)
		}
	}

	if err := writeOutput(cmd, out.String()); err != nil {
		return err
	}
	if lastResult != nil {
		if err := writeArtifacts(cmd, lastResult); err != nil {
			return err
		}
	}
	if failed {
		return errors.New("one or more inputs failed")
	}
	return nil
}

// convertInput runs one conversion, going through the cache when enabled.
// Image extraction bypasses the cache since image bytes are not stored.
func convertInput(cmd *cobra.Command, data []byte, ext string, opts *types.Options, store *cache.Store) (*types.Result, error) {
	useCache := store != nil && !opts.ExtractImages
	var key string
	if useCache {
		key = cache.Key(data, cacheFingerprint(ext, opts))
		if res, hit, err := store.Get(key); err == nil && hit {
			return res, nil
		}
	}
	res, err := anytomd.ConvertBytesContext(cmd.Context(), data, ext, opts)
	if err != nil {
		return nil, err
	}
	if useCache {
		if err := store.Put(key, res); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache write failed: %v\n", err)
		}
	}
	return res, nil
}

func cacheFingerprint(ext string, opts *types.Options) string {
	return fmt.Sprintf("ext=%s describe=%t", ext, opts.Describer != nil)
}

func printWarnings(warnings []types.Warning) {
	for _, w := range warnings {
		if w.Location != "" {
			fmt.Fprintf(os.Stderr, "warning: [%s] %s (%s)\n", w.Code, w.Message, w.Location)
		} else {
			fmt.Fprintf(os.Stderr, "warning: [%s] %s\n", w.Code, w.Message)
		}
	}
}

func writeOutput(cmd *cobra.Command, markdown string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err := os.Stdout.WriteString(markdown)
		return err
	}
	return os.WriteFile(output, []byte(markdown), 0o644)
}

// writeArtifacts handles the optional side outputs: extracted images and the
// YAML metadata sidecar.
func writeArtifacts(cmd *cobra.Command, res *types.Result) error {
	if len(res.Images) > 0 {
		mediaDir, _ := cmd.Flags().GetString("media-dir")
		if mediaDir == "" {
			if output, _ := cmd.Flags().GetString("output"); output != "" {
				mediaDir = filepath.Dir(output)
			} else {
				mediaDir = "."
			}
		}
		if err := os.MkdirAll(mediaDir, 0o755); err != nil {
			return err
		}
		for _, img := range res.Images {
			if err := os.WriteFile(filepath.Join(mediaDir, img.Filename), img.Data, 0o644); err != nil {
				return err
			}
		}
	}

	metaPath, _ := cmd.Flags().GetString("meta")
	if metaPath == "" {
		return nil
	}
	meta := struct {
		Title    *string         `yaml:"title"`
		Warnings []types.Warning `yaml:"warnings"`
		Images   int             `yaml:"images"`
	}{Title: res.Title, Warnings: res.Warnings, Images: len(res.Images)}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, data, 0o644)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
