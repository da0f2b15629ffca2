package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docvault/internal/progress"
	"github.com/ziadkadry99/docvault/internal/walker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths or globs...]",
	Short: "Ingest documents for a user",
	Long: `Loads each file, splits it into chunks, embeds the chunks and stores them
under the given user. Arguments may be files, directories (walked
recursively, filtered by allowed_formats) or doublestar globs such as
"docs/**/*.pdf". A file's source is its path relative to the working
directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringP("user", "u", "", "owner of the ingested documents (required)")
	ingestCmd.Flags().StringSlice("include", nil, "only ingest files matching these patterns")
	ingestCmd.Flags().StringSlice("exclude", nil, "skip files matching these patterns")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	user, _ := cmd.Flags().GetString("user")
	if err := requireUser(user); err != nil {
		return err
	}
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := walker.Expand(args, walker.Config{
		Formats: a.cfg.AllowedFormats,
		Include: include,
		Exclude: exclude,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No matching documents found.")
		return nil
	}

	cwd, _ := os.Getwd()
	reporter := progress.NewReporter()
	reporter.Start(len(files))

	var ingested, chunks int
	var failed []string
	for i, f := range files {
		source := f.Path
		if rel, err := filepath.Rel(cwd, f.Path); err == nil {
			source = filepath.ToSlash(rel)
		}
		reporter.Update(i+1, source)

		res, err := a.store.IngestFile(ctx, source, user)
		if err != nil {
			a.logger.Warn().Err(err).Str("source", source).Msg("ingest failed")
			failed = append(failed, source)
			continue
		}
		ingested++
		chunks += res.Chunks
	}
	reporter.Finish()

	if ingested > 0 {
		if err := a.persist(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("Ingested %d document(s), %d chunk(s) for %s in %s\n",
		ingested, chunks, user, time.Since(start).Round(time.Millisecond))
	if len(failed) > 0 {
		return fmt.Errorf("%d document(s) failed: %v", len(failed), failed)
	}
	return nil
}
