package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-vds/hsf"
	"github.com/robert-malhotra/go-vds/vds"
)

var (
	splitInput   string
	splitOutput  string
	splitN       int
	splitDataset string
	splitPattern string
	splitVerify  bool
	splitWorkers int
)

// splitCmd divides an existing container into shards plus a logical
// view over them.
var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split an existing container into shards and a logical view",
	Long: `Reads a dense dataset out of an existing container, copies each
partition's frames into its own shard file, and writes a logical
container whose virtual dataset reassembles them.

Example:
  vds split -i big.hsf -o out.hsf -n 8 --verify`,
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().StringVarP(&splitInput, "input", "i", "", "container to split (required)")
	splitCmd.Flags().StringVarP(&splitOutput, "output", "o", "", "logical container path (required)")
	splitCmd.Flags().IntVarP(&splitN, "partitions", "n", 0, "number of partitions (required)")
	splitCmd.Flags().StringVarP(&splitDataset, "dataset", "d", "", "dataset name (default: container's default)")
	splitCmd.Flags().StringVarP(&splitPattern, "pattern", "p", "", "shard naming pattern (printf-style)")
	splitCmd.Flags().BoolVar(&splitVerify, "verify", false, "spot-check the view against the original after writing")
	splitCmd.Flags().IntVar(&splitWorkers, "workers", 1, "shards written concurrently")
}

func runSplit(cmd *cobra.Command, args []string) error {
	if splitInput == "" || splitOutput == "" {
		return fmt.Errorf("both --input and --output are required")
	}
	if splitN < 1 {
		return fmt.Errorf("--partitions must be at least 1")
	}

	origin, err := hsf.Open(splitInput)
	if err != nil {
		return err
	}
	defer origin.Close()

	name := splitDataset
	if name == "" {
		names, err := origin.Root().Datasets()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("%s has no datasets", splitInput)
		}
		name = names[0]
		for _, n := range names {
			if n == "data" {
				name = n
			}
		}
	}
	src, err := origin.OpenDataset(name)
	if err != nil {
		return err
	}

	spec := vds.Spec{Shape: src.Shape(), Dtype: src.Dtype(), Dataset: name}
	pattern := splitPattern
	if pattern == "" {
		pattern = vds.DefaultPattern(stem(splitOutput))
	}
	plan, err := vds.NewPlan(spec, splitN, vds.WithPattern(pattern))
	if err != nil {
		return err
	}
	plan.OriginalFile = splitInput

	logger.Info("splitting container",
		zap.String("input", splitInput),
		zap.String("dataset", name),
		zap.Int64s("shape", spec.Shape),
		zap.Int("partitions", splitN))

	dir := filepath.Dir(splitOutput)
	mat := vds.NewMaterializer(
		vds.WithDir(dir),
		vds.WithWorkers(splitWorkers),
		vds.WithProgress(vds.NewZapProgress(logger)),
	)
	report, err := mat.Materialize(cmd.Context(), plan, vds.CopyFrom{Path: splitInput})
	if err != nil {
		return err
	}
	if !report.Ok() {
		return fmt.Errorf("%d of %d partitions failed", report.Failed(), len(report.Outcomes))
	}

	f, err := hsf.Create(splitOutput)
	if err != nil {
		return err
	}
	if _, err := vds.BuildView(f, plan); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("logical container written", zap.String("path", splitOutput))

	if splitVerify {
		return verifyContainer(splitOutput, splitInput, name, false)
	}
	return nil
}
