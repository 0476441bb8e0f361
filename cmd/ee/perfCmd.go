package ee

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for fKV stores",
		Long: `Runs write, read and mixed workloads against the store and reports latency percentiles.
The workloads overwrite the records in [base, base + 2*records). Data stored there is lost.`,
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 4
	perfOps        = 1000
	perfRecords    = 32
	perfBase       uint16
	perfSkip       = make([]string, 0)
)

var perfPercentiles = []float64{0.5, 0.95, 0.99}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. write,read)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 4, util.WrapString("Number of concurrent workers"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Operations per worker and benchmark"))
	key = "records"
	perfTestCmd.Flags().Int(key, 32, util.WrapString("How many different records the workloads touch (capped by the free slots of the store)"))
	key = "base"
	perfTestCmd.Flags().String(key, "0xF000", util.WrapString("First byte address used by the workloads"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	base, err := util.ParseAddress(viper.GetString("base"))
	if err != nil {
		return err
	}
	perfBase = base &^ 1
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfRecords = max(viper.GetInt("records"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfResult is the outcome of one workload
type perfResult struct {
	timer    gometrics.Timer
	errors   gometrics.Counter
	duration time.Duration
	skipped  bool
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for fKV stores")

	info, err := eeStore.GetInfo()
	if err != nil {
		return err
	}
	if free := info.Capacity - info.LiveRecords; perfRecords > free {
		fmt.Printf("reducing records from %d to %d (free slots)\n", perfRecords, free)
		perfRecords = max(free, 1)
	}
	if int(perfBase)+2*perfRecords > int(eeprom.MaxAddress) {
		return fmt.Errorf("records %d do not fit above base 0x%04X", perfRecords, perfBase)
	}

	fmt.Println()
	fmt.Println("Configuration:")
	if image := viper.GetString("image"); image != "" {
		fmt.Printf("Image: %s\n", image)
	} else {
		fmt.Println(util.GetClientConfig().String())
	}
	fmt.Printf("Threads: %d, Ops: %d, Records: %d, Base: 0x%04X\n", perfNumThreads, perfOps, perfRecords, perfBase)
	fmt.Println()

	registry := gometrics.NewRegistry()
	results := make(map[string]*perfResult)
	order := []string{"write", "write-elided", "read", "read-multi", "mixed"}

	workloads := map[string]func(worker, i int) error{
		"write": func(worker, i int) error {
			_, err := eeStore.Write(perfAddress(worker, i), []byte{byte(worker), byte(i)})
			return err
		},
		"write-elided": func(worker, i int) error {
			_, err := eeStore.Write(fixedAddress(worker), []byte{0xEE, 0xEE})
			return err
		},
		"read": func(worker, i int) error {
			_, err := eeStore.Read(perfAddress(worker, i), 2)
			return err
		},
		"read-multi": func(worker, i int) error {
			_, err := eeStore.Read(perfBase, 2*perfRecords)
			return err
		},
		"mixed": func(worker, i int) error {
			if i%4 == 0 {
				_, err := eeStore.Write(perfAddress(worker, i), []byte{byte(i), byte(i >> 8)})
				return err
			}
			_, err := eeStore.Read(perfAddress(worker, i), 2)
			return err
		},
	}

	fmt.Println("starting tests...")
	for _, name := range order {
		result := &perfResult{
			timer:  gometrics.GetOrRegisterTimer(name+".latency", registry),
			errors: gometrics.GetOrRegisterCounter(name+".errors", registry),
		}
		results[name] = result

		if shouldSkip(name) {
			result.skipped = true
			printResult(name, result)
			continue
		}

		if name == "write-elided" {
			// seed the value the workload keeps writing
			for w := 0; w < perfNumThreads; w++ {
				if _, err := eeStore.Write(fixedAddress(w), []byte{0xEE, 0xEE}); err != nil {
					return err
				}
			}
		}

		if err := runWorkload(result, workloads[name]); err != nil {
			return err
		}
		printResult(name, result)
	}

	if info, err = eeStore.GetInfo(); err == nil {
		fmt.Printf("\nstore after tests: %d compactions, %d appended, %d elided writes\n",
			info.Compactions, info.Appended, info.Elided)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, order, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runWorkload runs op perfOps times on every worker and records the latencies.
// Store errors are counted, other failures abort the run.
func runWorkload(result *perfResult, op func(worker, i int) error) error {
	var g errgroup.Group
	start := time.Now()

	for w := 0; w < perfNumThreads; w++ {
		g.Go(func() error {
			for i := 0; i < perfOps; i++ {
				begin := time.Now()
				err := op(w, i)
				result.timer.UpdateSince(begin)

				if err != nil {
					result.errors.Inc(1)
					if store.CodeOf(err) == store.RetCInternalError {
						return err
					}
				}
			}
			return nil
		})
	}

	err := g.Wait()
	result.duration = time.Since(start)
	return err
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// perfAddress spreads the operations of all workers over the perf records
func perfAddress(worker, i int) uint16 {
	n := (worker*perfOps + i + rand.Intn(perfRecords)) % perfRecords
	return perfBase + uint16(2*n)
}

// fixedAddress is the one record a worker keeps rewriting
func fixedAddress(worker int) uint16 {
	return perfBase + uint16(2*(worker%perfRecords))
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result *perfResult) {
	if result.skipped || result.timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	t := result.timer.Snapshot()
	ps := t.Percentiles(perfPercentiles)
	opsPerSec := float64(t.Count()) / result.duration.Seconds()

	fmt.Printf("%-20s%s/op\tp50 %s\tp95 %s\tp99 %s\t%.0f ops/sec\t%d errors\n",
		test, time.Duration(t.Mean()), time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]),
		opsPerSec, result.errors.Count())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, order []string, results map[string]*perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Ops", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "OpsPerSec", "Errors", "Skipped",
		"Target", "Serializer", "Transport", "Threads", "Records",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	target := viper.GetString("image")
	if target == "" {
		target = strings.Join(util.GetClientConfig().Endpoints, ";")
	}

	for _, test := range order {
		result := results[test]
		t := result.timer.Snapshot()
		ps := t.Percentiles(perfPercentiles)

		var opsPerSec float64
		if result.duration > 0 {
			opsPerSec = float64(t.Count()) / result.duration.Seconds()
		}

		row := []string{
			test,
			strconv.FormatInt(t.Count(), 10),
			fmt.Sprintf("%.0f", t.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatInt(result.errors.Count(), 10),
			strconv.FormatBool(result.skipped),
			target,
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfRecords),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", test, err)
		}
	}

	return nil
}
