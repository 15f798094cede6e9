// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mdhender/peg"
	"github.com/mdhender/peg/jsong"
	"github.com/mdhender/peg/model"
	"github.com/mdhender/peg/pipelines/stages"
	store "github.com/mdhender/peg/stores/sqlite"
	"github.com/spf13/cobra"
)

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", true, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "peg",
		Short: "grammar-driven parser command line utility",
		Long:  `Compile grammar descriptions and parse input text against them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags || logFlags == 0 {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("peg: version %q\n", peg.Version().Core())
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdParse())
	cmdRoot.AddCommand(cmdCheck())
	cmdRoot.AddCommand(cmdJSON())
	cmdRoot.AddCommand(cmdBatch())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseReport is the JSON shape written by the parse commands.
type parseReport struct {
	Matched   bool            `json:"matched"`
	Tree      json.RawMessage `json:"tree,omitempty"`
	Remainder string          `json:"remainder"`
	Consumed  bool            `json:"consumed"`
}

func report(tree peg.Node, remainder string, matched bool) (*parseReport, error) {
	rpt := &parseReport{
		Matched:   matched,
		Remainder: remainder,
		Consumed:  matched && remainder == "",
	}
	if matched {
		encoded, err := json.Marshal(tree)
		if err != nil {
			return nil, err
		}
		rpt.Tree = encoded
	}
	return rpt, nil
}

func writeReport(rpt *parseReport, outputFile string) error {
	data, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return err
	}
	if outputFile == "" {
		fmt.Printf("%s\n", string(data))
		return nil
	}
	return os.WriteFile(outputFile, data, 0o644)
}

func cmdParse() *cobra.Command {
	var startSymbol string
	var whitespace string
	var outputFile string
	var requireFull bool
	var cmd = &cobra.Command{
		Use:          "parse <grammar-file> <input-file>",
		Short:        "parse an input file against a grammar",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			input, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			g, err := peg.Compile(string(source), whitespace)
			if err != nil {
				return err
			}
			tree, remainder, matched := peg.Parse(startSymbol, string(input), g)
			if !matched {
				log.Printf("%s: no parse for %q\n", args[1], startSymbol)
			} else if requireFull && remainder != "" {
				return fmt.Errorf("%s: %d bytes unconsumed", args[1], len(remainder))
			}
			rpt, err := report(tree, remainder, matched)
			if err != nil {
				return err
			}
			return writeReport(rpt, outputFile)
		},
	}
	cmd.Flags().StringVarP(&startSymbol, "start", "s", "", "start symbol (required)")
	cmd.MarkFlagRequired("start")
	cmd.Flags().StringVarP(&whitespace, "whitespace", "w", "", "whitespace pattern (default \\s*)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "save report to file")
	cmd.Flags().BoolVar(&requireFull, "require-full", false, "fail unless the whole input is consumed")
	return cmd
}

func cmdCheck() *cobra.Command {
	var whitespace string
	var cmd = &cobra.Command{
		Use:          "check <grammar-file>",
		Short:        "compile a grammar and list its rules",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			g, err := peg.Compile(string(source), whitespace)
			if err != nil {
				return err
			}
			for _, symbol := range g.Symbols() {
				fmt.Printf("%-16s %3d alternatives\n", symbol, len(g.Alternatives(symbol)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&whitespace, "whitespace", "w", "", "whitespace pattern (default \\s*)")
	return cmd
}

func cmdJSON() *cobra.Command {
	var outputFile string
	var cmd = &cobra.Command{
		Use:          "json <text>",
		Short:        "parse text with the built-in JSON grammar",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, remainder, matched := jsong.Parse(args[0])
			rpt, err := report(tree, remainder, matched)
			if err != nil {
				return err
			}
			return writeReport(rpt, outputFile)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "save report to file")
	return cmd
}

func cmdBatch() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "batch",
		Short: "run batch parsing against a database-backed queue",
	}
	cmd.AddCommand(cmdBatchInitDB())
	cmd.AddCommand(cmdBatchIngest())
	cmd.AddCommand(cmdBatchWork())
	return cmd
}

func cmdBatchInitDB() *cobra.Command {
	var databaseFile string
	var cmd = &cobra.Command{
		Use:          "init-db",
		Short:        "create and initialize the batch database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.InitDatabase(databaseFile)
		},
	}
	cmd.Flags().StringVarP(&databaseFile, "database", "d", "peg.db", "database file to create")
	return cmd
}

func cmdBatchIngest() *cobra.Command {
	var databaseFile string
	var dataDir string
	var grammarName string
	var startSymbol string
	var whitespace string
	var cmd = &cobra.Command{
		Use:          "ingest <grammar-file> <input-file>...",
		Short:        "register a grammar and queue input files for parsing",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if grammarName == "" {
				grammarName = args[0]
			}

			s, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: databaseFile})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := context.Background()
			svc := stages.NewIngestService(s, dataDir)
			gr, err := svc.RegisterGrammar(ctx, grammarName, string(source), whitespace)
			if err != nil {
				return err
			}
			if gr.Duplicate {
				log.Printf("grammar %q already registered as %d\n", grammarName, gr.GrammarFileID)
			}

			for _, inputFile := range args[1:] {
				data, err := os.ReadFile(inputFile)
				if err != nil {
					return err
				}
				res, err := svc.IngestInput(ctx, stages.IngestRequest{
					GrammarFileID: gr.GrammarFileID,
					Start:         startSymbol,
					Filename:      inputFile,
					Data:          data,
				})
				if err != nil {
					return err
				}
				if res.Duplicate {
					log.Printf("%s: already ingested as input %d\n", inputFile, res.InputFileID)
				} else {
					log.Printf("%s: queued work %d for input %d\n", inputFile, res.WorkID, res.InputFileID)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&databaseFile, "database", "d", "peg.db", "batch database file")
	cmd.Flags().StringVar(&dataDir, "data", "data", "directory for ingested input files")
	cmd.Flags().StringVarP(&grammarName, "name", "n", "", "grammar name (default grammar file path)")
	cmd.Flags().StringVarP(&startSymbol, "start", "s", "", "start symbol (required)")
	cmd.MarkFlagRequired("start")
	cmd.Flags().StringVarP(&whitespace, "whitespace", "w", "", "whitespace pattern (default \\s*)")
	return cmd
}

func cmdBatchWork() *cobra.Command {
	var databaseFile string
	var dataDir string
	var workerID string
	var maxJobs int
	var cmd = &cobra.Command{
		Use:          "work",
		Short:        "process queued parse jobs until the queue is empty",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: databaseFile})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := context.Background()
			worker := stages.NewWorkerService(s, dataDir, workerID)
			processed := 0
			for maxJobs <= 0 || processed < maxJobs {
				ok, err := worker.ProcessJob(ctx, model.WorkStageParse)
				if err != nil {
					log.Printf("job failed: %v\n", err)
				}
				if !ok {
					break
				}
				processed++
			}
			log.Printf("processed %d jobs\n", processed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&databaseFile, "database", "d", "peg.db", "batch database file")
	cmd.Flags().StringVar(&dataDir, "data", "data", "directory holding ingested input files")
	cmd.Flags().StringVar(&workerID, "worker-id", "", "worker id (default hostname:pid)")
	cmd.Flags().IntVar(&maxJobs, "max-jobs", 0, "stop after this many jobs (0 = until empty)")
	return cmd
}

func cmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "show the application version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s\n", peg.Version().String())
		},
	}
}
