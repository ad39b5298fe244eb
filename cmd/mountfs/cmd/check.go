package cmd

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aweris/mountfs"
)

var checkCmd = &cobra.Command{
	Use:   "check <path>...",
	Short: "Check that paths resolve",
	Long:  "Open every path concurrently and report whether it was found. Exits non-zero if any path is unavailable.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type checkResult struct {
	name string
	err  error
}

func (r checkResult) status() string {
	switch {
	case r.err == nil:
		return "found"
	case mountfs.IsNotFound(r.err):
		return "missing"
	default:
		return "failed"
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}

	results := checkPaths(table, args, viper.GetInt("concurrency"))

	bad := 0
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.err == nil {
			fmt.Fprintf(out, "%s\t%s\n", r.status(), r.name)
			continue
		}
		bad++
		fmt.Fprintf(out, "%s\t%s\t%v\n", r.status(), r.name, r.err)
	}

	if bad > 0 {
		return fmt.Errorf("%d of %d paths unavailable", bad, len(results))
	}
	return nil
}

// checkPaths opens names with at most concurrency opens in flight. Results
// are in the order of names.
func checkPaths(s mountfs.Store, names []string, concurrency int) []checkResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]checkResult, len(names))
	p := pool.New().WithMaxGoroutines(concurrency)
	for i, name := range names {
		p.Go(func() {
			f, err := s.Open(name)
			if err == nil {
				err = f.Close()
			}
			results[i] = checkResult{name: name, err: err}
		})
	}
	p.Wait()

	return results
}
