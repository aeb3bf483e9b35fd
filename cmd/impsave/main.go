// Copyright (c) 2026 Rakaly Contributors

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	imperator "github.com/rakaly/imperator-save"
)

///////////////////////////////////////////////////////////////////////////////

var (
	tokenFile string // path to the 0xID identifier resolver table

	unresolvedMode string // one of "ignore", "error", "stringify"

	verbatim bool // disable melt's key-driven rewrite rules
)

func requireNoErrorWithoutPrint(err error) {
	if err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func main() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().StringVarP(&tokenFile, "tokens", "t", "", "Path to the 0xID identifier resolver table")
	rootCmd.PersistentFlags().StringVarP(&unresolvedMode, "unresolved", "u", "ignore", "Unresolved token policy: ignore, error, stringify")

	rootCmd.AddCommand(meltCmd)
	meltCmd.Flags().BoolVar(&verbatim, "verbatim", false, "Disable melt's key-driven rewrite rules")

	rootCmd.AddCommand(jsonCmd)
	rootCmd.AddCommand(debugSaveCmd)

	err := rootCmd.Execute()
	requireNoErrorWithoutPrint(err)
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "impsave",
	Short: "impsave inspects and converts Imperator: Rome save files",
	Long:  "impsave inspects and converts Imperator: Rome save files",
}

func loadResolver() imperator.Resolver {
	if tokenFile == "" {
		return imperator.MapResolver{}
	}
	resolver, err := imperator.NewFileResolver(tokenFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading token file %s: %s\n", tokenFile, err.Error())
		os.Exit(1)
	}
	return resolver
}

func resolvePolicy() imperator.OnUnresolved {
	switch unresolvedMode {
	case "error":
		return imperator.OnUnresolvedError
	case "stringify":
		return imperator.OnUnresolvedStringify
	default:
		return imperator.OnUnresolvedIgnore
	}
}

///////////////////////////////////////////////////////////////////////////////

var meltCmd = &cobra.Command{
	Use:   "melt file...",
	Short: `Melts binary saves to their plaintext equivalent, printed to stdout`,
	Long:  `Melts binary saves to their plaintext equivalent, printed to stdout`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resolver := loadResolver()
		opts := imperator.MeltOptions{Verbatim: verbatim, OnFailedResolve: resolvePolicy()}
		for _, sourceFile := range args {
			if err := meltOne(sourceFile, resolver, opts); err != nil {
				fmt.Fprintf(os.Stderr, "error: melting %s: %s\n", sourceFile, err.Error())
			}
		}
	},
}

func meltOne(sourceFile string, resolver imperator.Resolver, opts imperator.MeltOptions) error {
	out, result, err := imperator.MeltFile(sourceFile, resolver, opts)
	if err != nil {
		return fmt.Errorf("melt failed: %w", err)
	}
	if _, err := os.Stdout.Write(out); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if len(result.UnknownTokens) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d unresolved token id(s) in %s\n", len(result.UnknownTokens), sourceFile)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

var jsonCmd = &cobra.Command{
	Use:   "json file...",
	Short: `Prints a save's materialized metadata and gamestate as JSON`,
	Long:  `Prints a save's materialized metadata and gamestate as JSON`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resolver := loadResolver()
		opts := imperator.ParseOptions{
			Resolver: resolver,
			Options:  imperator.DeserializeOptions{OnFailedResolve: resolvePolicy()},
		}
		for _, sourceFile := range args {
			if err := printJSON(sourceFile, opts); err != nil {
				fmt.Fprintf(os.Stderr, "error: reading %s: %s\n", sourceFile, err.Error())
			}
		}
	},
}

func printJSON(sourceFile string, opts imperator.ParseOptions) error {
	record, err := imperator.ParseFile(sourceFile, opts)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	jstr, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	fmt.Printf("%s\n", jstr)
	return nil
}

///////////////////////////////////////////////////////////////////////////////

var debugSaveCmd = &cobra.Command{
	Use:   "debug-save file...",
	Short: `Prints a save's in-game date`,
	Long:  `Deserializes a save's metadata and prints the in-game date it was taken on, alongside envelope diagnostics useful for an unrecognized save`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resolver := loadResolver()
		opts := imperator.ParseOptions{
			Resolver: resolver,
			Options:  imperator.DeserializeOptions{OnFailedResolve: resolvePolicy()},
		}
		for _, sourceFile := range args {
			if err := debugSave(sourceFile, opts); err != nil {
				fmt.Fprintf(os.Stderr, "error: reading %s: %s\n", sourceFile, err.Error())
			}
		}
	},
}

func debugSave(sourceFile string, opts imperator.ParseOptions) error {
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		return err
	}
	env, err := imperator.OpenEnvelope(data)
	if err != nil {
		return fmt.Errorf("envelope detection failed: %w", err)
	}

	gamestateBytes, err := io.ReadAll(env.GamestateReader())
	if err != nil {
		return fmt.Errorf("reading gamestate section: %w", err)
	}

	record, err := imperator.ParseFile(sourceFile, opts)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	date := "unknown"
	if meta, ok := record.Meta.(map[string]any); ok {
		if d, ok := meta["date"].(string); ok {
			date = d
		}
	}

	fmt.Printf("%s: date %s (version %s, binary=%t, zip=%t)\n",
		sourceFile, date, env.Header.Version(), env.Header.IsBinary(), env.Header.Kind().IsZip())
	fmt.Printf("  gamestate: %s (%s bytes)\n", humanize.Bytes(uint64(len(gamestateBytes))), humanize.Comma(int64(len(gamestateBytes))))
	return nil
}
